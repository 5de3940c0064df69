package models

import (
	"time"
)

// Kind identifies an entity kind that is reconciled independently
type Kind string

const (
	KindRepository   Kind = "repository"
	KindCommits      Kind = "commits"
	KindIssues       Kind = "issues"
	KindPullRequests Kind = "pull_requests"
)

// Project links a DevDash workspace to a GitHub repository
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	GitHubURL   string    `json:"githubUrl"`
	GitHubToken string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserProfile is a GitHub identity as it appears in API payloads. It is
// stored either as an external user profile (owners, creators, closers) or
// as an assigned/reviewing member, both keyed by UserName.
type UserProfile struct {
	ID        *int64 `json:"id"`
	UserName  string `json:"userName"`
	Name      string `json:"name"`
	AvatarURL string `json:"userAvatar"`
}

// Label is a GitHub label, shared across issues and pull requests by name
type Label struct {
	ID    *int64  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// Repository is the normalized snapshot of a project's GitHub repository
type Repository struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Private       bool         `json:"private"`
	Owner         *UserProfile `json:"owner"`
	Description   string       `json:"description"`
	Topics        []string     `json:"topics"`
	OpenIssues    int          `json:"openIssues"`
	DefaultBranch string       `json:"defaultBranch"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Commit is a normalized commit. Commits are immutable once stored.
type Commit struct {
	SHA        string      `json:"sha"`
	Author     UserProfile `json:"author"`
	CommitDate *time.Time  `json:"commitDate"`
	Message    string      `json:"message"`
	Summary    string      `json:"summary"`
}

// Issue is a normalized GitHub issue.
//
// Nil collections mean the payload carried no such collection; an empty
// slice means it carried an empty one.
type Issue struct {
	ID          int64         `json:"id"`
	Number      int           `json:"number"`
	State       string        `json:"state"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Comments    int           `json:"comments"`
	Creator     *UserProfile  `json:"creator"`
	CreatedAt   time.Time     `json:"createdAt"`
	Assignees   []UserProfile `json:"assignees"`
	ClosedBy    *UserProfile  `json:"closedBy"`
	ClosedAt    *time.Time    `json:"closedAt"`
	Labels      []Label       `json:"label"`
}

// PullRequest is a normalized GitHub pull request including the fields
// that only the detail endpoint reports
type PullRequest struct {
	ID                  int64         `json:"id"`
	Number              int           `json:"number"`
	Title               string        `json:"title"`
	State               string        `json:"state"`
	HeadRef             string        `json:"headRef"`
	BaseRef             string        `json:"baseRef"`
	Description         *string       `json:"description"`
	Creator             *UserProfile  `json:"creator"`
	CreatedAt           time.Time     `json:"createdAt"`
	Labels              []Label       `json:"label"`
	Reviewers           []UserProfile `json:"reviewers"`
	Assignees           []UserProfile `json:"assignees"`
	ClosedAt            *time.Time    `json:"closedAt"`
	MergedAt            *time.Time    `json:"mergedAt"`
	CommentsCount       int           `json:"commentsCount"`
	ReviewCommentsCount int           `json:"reviewCommentsCount"`
	Additions           int           `json:"additions"`
	Deletions           int           `json:"deletions"`
	ChangedFiles        int           `json:"changedFiles"`
	Draft               bool          `json:"draft"`
	Mergeable           *bool         `json:"mergeable"`
	AutoMerge           bool          `json:"autoMerge"`
	MaintainerCanModify bool          `json:"maintainerCanModify"`
}

// SyncState records the outcome of the most recent successful fetch for a
// project and kind
type SyncState struct {
	ProjectID    string
	Kind         Kind
	TotalPages   int
	LastSyncTime time.Time
}

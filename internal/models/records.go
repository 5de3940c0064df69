package models

// Relation names a many-to-many link between a parent entity and a shared
// reference entity
type Relation string

const (
	RelIssueAssignee       Relation = "issue_assignee"
	RelIssueLabel          Relation = "issue_label"
	RelPullRequestAssignee Relation = "pull_request_assignee"
	RelPullRequestReviewer Relation = "pull_request_reviewer"
	RelPullRequestLabel    Relation = "pull_request_label"
)

// RepositoryRecord is a repository snapshot ready to be persisted
type RepositoryRecord struct {
	ProjectID  string
	Repository *Repository
	OwnerID    *int64
	Hash       string
}

// IssueRecord is an issue with its resolved foreign keys
type IssueRecord struct {
	ProjectID  string
	Issue      *Issue
	CreatorID  *int64
	ClosedByID *int64
	Hash       string
}

// PullRequestRecord is a pull request with its resolved foreign keys
type PullRequestRecord struct {
	ProjectID   string
	PullRequest *PullRequest
	CreatorID   *int64
	Hash        string
}

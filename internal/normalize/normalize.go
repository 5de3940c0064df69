// Package normalize maps GitHub payloads onto the flat domain records the
// store persists. Every function is pure.
package normalize

import (
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/MurtazaD1410/developer-dashboard/internal/api"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
)

// User converts a GitHub account into a user profile. A nil account
// yields nil.
func User(u *github.User) *models.UserProfile {
	if u == nil {
		return nil
	}
	return &models.UserProfile{
		ID:        u.ID,
		UserName:  u.GetLogin(),
		Name:      u.GetName(),
		AvatarURL: u.GetAvatarURL(),
	}
}

// Users converts a list of accounts. An absent list stays nil so that it
// remains distinguishable from an empty one.
func Users(users []*github.User) []models.UserProfile {
	if users == nil {
		return nil
	}
	out := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		if p := User(u); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Labels converts raw labels of either shape
func Labels(labels api.RawLabels) []models.Label {
	if labels == nil {
		return nil
	}
	out := make([]models.Label, 0, len(labels))
	for _, l := range labels {
		switch l := l.(type) {
		case api.StringLabel:
			out = append(out, models.Label{Name: string(l)})
		case api.ObjectLabel:
			label := models.Label{ID: l.ID, Name: l.Name}
			if l.Color != "" {
				color := l.Color
				label.Color = &color
			}
			out = append(out, label)
		}
	}
	return out
}

func Repository(r *github.Repository) *models.Repository {
	if r == nil {
		return nil
	}
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return &models.Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		Private:       r.GetPrivate(),
		Owner:         User(r.Owner),
		Description:   r.GetDescription(),
		Topics:        topics,
		OpenIssues:    r.GetOpenIssuesCount(),
		DefaultBranch: r.GetDefaultBranch(),
		CreatedAt:     r.GetCreatedAt().Time.UTC(),
		UpdatedAt:     r.GetUpdatedAt().Time.UTC(),
	}
}

// Commit converts a listed commit. Commits that are not linked to a GitHub
// account fall back to the git author name.
func Commit(c *github.RepositoryCommit) *models.Commit {
	if c == nil {
		return nil
	}

	commit := &models.Commit{
		SHA:     c.GetSHA(),
		Message: c.GetCommit().GetMessage(),
	}

	gitAuthor := c.GetCommit().GetAuthor()
	if author := User(c.Author); author != nil {
		commit.Author = *author
	} else {
		commit.Author = models.UserProfile{UserName: gitAuthor.GetName(), Name: gitAuthor.GetName()}
	}

	if gitAuthor != nil && gitAuthor.Date != nil {
		commit.CommitDate = utc(gitAuthor.Date)
	}

	return commit
}

func Issue(i *api.RawIssue) *models.Issue {
	if i == nil {
		return nil
	}
	return &models.Issue{
		ID:          i.GetID(),
		Number:      i.GetNumber(),
		State:       i.GetState(),
		Title:       i.GetTitle(),
		Description: i.Body,
		Comments:    i.GetComments(),
		Creator:     User(i.User),
		CreatedAt:   i.GetCreatedAt().Time.UTC(),
		Assignees:   Users(i.Assignees),
		ClosedBy:    User(i.ClosedBy),
		ClosedAt:    utc(i.ClosedAt),
		Labels:      Labels(i.Labels),
	}
}

// PullRequest merges a listed pull request with its detail. A nil detail
// leaves the detail-only fields zero.
func PullRequest(pr *api.RawPullRequest, detail *api.PullRequestDetail) *models.PullRequest {
	if pr == nil {
		return nil
	}

	out := &models.PullRequest{
		ID:          pr.GetID(),
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		State:       pr.GetState(),
		HeadRef:     pr.GetHead().GetRef(),
		BaseRef:     pr.GetBase().GetRef(),
		Description: pr.Body,
		Creator:     User(pr.User),
		CreatedAt:   pr.GetCreatedAt().Time.UTC(),
		Labels:      Labels(pr.Labels),
		Reviewers:   Users(pr.RequestedReviewers),
		Assignees:   Users(pr.Assignees),
		ClosedAt:    utc(pr.ClosedAt),
		MergedAt:    utc(pr.MergedAt),
	}

	if detail != nil {
		out.CommentsCount = detail.Comments
		out.ReviewCommentsCount = detail.ReviewComments
		out.Additions = detail.Additions
		out.Deletions = detail.Deletions
		out.ChangedFiles = detail.ChangedFiles
		out.Draft = detail.Draft
		out.Mergeable = detail.Mergeable
		out.AutoMerge = detail.AutoMerge
		out.MaintainerCanModify = detail.MaintainerCanModify
	}

	return out
}

func utc(ts *github.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

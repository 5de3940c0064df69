package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/go-github/v57/github"
)

// RawLabel is a label as it appears in a GitHub payload: either a bare
// name (StringLabel) or a structured object (ObjectLabel).
type RawLabel interface {
	rawLabel()
}

type StringLabel string

type ObjectLabel struct {
	ID    *int64 `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (StringLabel) rawLabel() {}
func (ObjectLabel) rawLabel() {}

// RawLabels decodes a JSON array whose elements may be strings or objects
type RawLabels []RawLabel

func (l *RawLabels) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to decode labels: %w", err)
	}

	out := make(RawLabels, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var name string
			if err := json.Unmarshal(item, &name); err != nil {
				return fmt.Errorf("failed to decode label name: %w", err)
			}
			out = append(out, StringLabel(name))
			continue
		}

		var obj ObjectLabel
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("failed to decode label object: %w", err)
		}
		out = append(out, obj)
	}

	*l = out
	return nil
}

// RawIssue is an issue from the list endpoint. Labels shadows the embedded
// github.Issue field so that both label shapes decode.
type RawIssue struct {
	github.Issue
	Labels RawLabels `json:"labels"`
}

// RawPullRequest is a pull request from the list endpoint
type RawPullRequest struct {
	github.PullRequest
	Labels RawLabels `json:"labels"`
}

// PullRequestDetail holds the fields only reported by the single pull
// request endpoint, plus the review comment count
type PullRequestDetail struct {
	Comments            int
	ReviewComments      int
	Additions           int
	Deletions           int
	ChangedFiles        int
	Draft               bool
	Mergeable           *bool
	AutoMerge           bool
	MaintainerCanModify bool
}

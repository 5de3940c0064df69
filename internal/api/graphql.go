package api

import (
	"context"
	"time"

	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
)

// GraphQLClient represents a client for the GitHub GraphQL API. The
// GraphQL API has its own point-based budget, separate from REST.
type GraphQLClient struct {
	client *githubv4.Client
}

// NewGraphQLClient creates a new GraphQL client. GitHub rejects anonymous
// GraphQL requests, so token must be set. A non-empty endpoint overrides
// the public API URL.
func NewGraphQLClient(token, endpoint string) *GraphQLClient {
	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), src)

	if endpoint != "" {
		return &GraphQLClient{client: githubv4.NewEnterpriseClient(endpoint, httpClient)}
	}
	return &GraphQLClient{client: githubv4.NewClient(httpClient)}
}

// RateLimit is a snapshot of the GraphQL API budget
type RateLimit struct {
	Limit     int
	Cost      int
	Remaining int
	ResetAt   time.Time
}

// RateLimit queries the current GraphQL budget
func (c *GraphQLClient) RateLimit(ctx context.Context) (*RateLimit, error) {
	var query struct {
		RateLimit struct {
			Limit     githubv4.Int
			Cost      githubv4.Int
			Remaining githubv4.Int
			ResetAt   githubv4.DateTime
		}
	}

	if err := c.client.Query(ctx, &query, nil); err != nil {
		return nil, apperror.Upstream("query rate limit", err)
	}

	return &RateLimit{
		Limit:     int(query.RateLimit.Limit),
		Cost:      int(query.RateLimit.Cost),
		Remaining: int(query.RateLimit.Remaining),
		ResetAt:   query.RateLimit.ResetAt.Time.UTC(),
	}, nil
}

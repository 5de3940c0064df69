package api

import (
	"net/url"
	"strings"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
)

// RepoRef identifies a GitHub repository by owner and name
type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepositoryURL extracts owner and name from a repository URL such as
// https://github.com/owner/name. The plain "owner/name" form is accepted as
// well. Only the last two path segments are considered, and for URLs with a
// scheme those segments must come from the path.
func ParseRepositoryURL(raw string) (RepoRef, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return RepoRef{}, apperror.InvalidRepositoryReference(raw)
		}
		s = u.Path
	}
	s = strings.Trim(s, "/")
	s = strings.TrimSuffix(s, ".git")

	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return RepoRef{}, apperror.InvalidRepositoryReference(raw)
	}

	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" || strings.HasSuffix(owner, ":") {
		return RepoRef{}, apperror.InvalidRepositoryReference(raw)
	}

	return RepoRef{Owner: owner, Name: name}, nil
}

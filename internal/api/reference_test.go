package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
)

func TestParseRepositoryURL(t *testing.T) {
	tests := []struct {
		raw  string
		want RepoRef
	}{
		{"https://github.com/octo/alpha", RepoRef{"octo", "alpha"}},
		{"https://github.com/octo/alpha/", RepoRef{"octo", "alpha"}},
		{"https://github.com/octo/alpha.git", RepoRef{"octo", "alpha"}},
		{"  github.com/octo/alpha  ", RepoRef{"octo", "alpha"}},
		{"octo/alpha", RepoRef{"octo", "alpha"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref, err := ParseRepositoryURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
			assert.Equal(t, "octo/alpha", ref.String())
		})
	}
}

func TestParseRepositoryURLRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "alpha", "https://github.com", "https://github.com/", "https://github.com/octo", "https://github.com/octo/", "octo/", "/alpha"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseRepositoryURL(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrInvalidRepositoryReference)
		})
	}
}

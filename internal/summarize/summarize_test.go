package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MurtazaD1410/developer-dashboard/internal/apperror"
)

func messageResponse(text string) string {
	return fmt.Sprintf(`{
		"id": "msg_test", "type": "message", "role": "assistant", "model": "test-model",
		"content": [{"type": "text", "text": %q}],
		"stop_reason": "end_turn", "stop_sequence": null,
		"usage": {"input_tokens": 12, "output_tokens": 7}
	}`, text)
}

func newTestSummarizer(t *testing.T, handler http.HandlerFunc) *Anthropic {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewAnthropic(Options{
		APIKey:         "test-key",
		Model:          "test-model",
		BaseURL:        server.URL,
		RequestOptions: []option.RequestOption{option.WithMaxRetries(0)},
	}, nil)
}

func TestSummarize(t *testing.T) {
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content[0].Text, "+func cache()")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, messageResponse("  * Added a cache helper\n"))
	})

	summary, err := s.Summarize(context.Background(), "diff --git a/c.go b/c.go\n+func cache() {}\n")
	require.NoError(t, err)
	assert.Equal(t, "* Added a cache helper", summary)
}

func TestSummarizeEmptyDiffSkipsAPI(t *testing.T) {
	var calls atomic.Int32
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	summary, err := s.Summarize(context.Background(), "  \n")
	require.NoError(t, err)
	assert.Equal(t, EmptyDiffSummary, summary)
	assert.Zero(t, calls.Load())
}

func TestSummarizeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"type": "error", "error": {"type": "api_error", "message": "boom"}}`)
			},
		},
		{
			name: "empty text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, messageResponse("   "))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSummarizer(t, tt.handler)
			_, err := s.Summarize(context.Background(), "+x")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrSummarizationFailed)
		})
	}
}

func TestSampleDiff(t *testing.T) {
	small := strings.Repeat("a", 100)
	out, truncated := sampleDiff(small)
	assert.False(t, truncated)
	assert.Equal(t, small, out)

	large := strings.Repeat("h", headDiff) + strings.Repeat("m", maxPromptDiff) + strings.Repeat("t", maxPromptDiff-headDiff)
	out, truncated = sampleDiff(large)
	assert.True(t, truncated)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("h", headDiff)))
	assert.True(t, strings.HasSuffix(out, strings.Repeat("t", maxPromptDiff-headDiff)))
	assert.NotContains(t, out, "mm")
	assert.Contains(t, buildPrompt(large), "has been sampled")
}

func TestSampleDiffKeepsRunesWhole(t *testing.T) {
	// The leading byte shifts every three-byte rune off the cut points
	diff := "a" + strings.Repeat("€", maxPromptDiff)

	out, truncated := sampleDiff(diff)
	require.True(t, truncated)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "a€"))
	assert.True(t, strings.HasSuffix(out, "€€"))
	assert.LessOrEqual(t, len(out), maxPromptDiff+len("\n\n... [truncated middle section] ...\n\n"))
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	s := New(Options{}, nil)

	_, err := s.Summarize(context.Background(), "+x")
	assert.ErrorIs(t, err, ErrSummarizerDisabled)
}

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled(nil))
	assert.False(t, Enabled(Disabled{}))
	assert.True(t, Enabled(NewAnthropic(Options{APIKey: "k"}, nil)))
}

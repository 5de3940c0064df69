package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawLabelsDecodesBothShapes(t *testing.T) {
	var issue RawIssue
	err := json.Unmarshal([]byte(`{"id": 1, "labels": ["bug", {"id": 2, "name": "ui", "color": "ededed"}]}`), &issue)
	require.NoError(t, err)

	require.Len(t, issue.Labels, 2)
	assert.Equal(t, StringLabel("bug"), issue.Labels[0])

	obj, ok := issue.Labels[1].(ObjectLabel)
	require.True(t, ok)
	require.NotNil(t, obj.ID)
	assert.Equal(t, int64(2), *obj.ID)
	assert.Equal(t, "ui", obj.Name)
	assert.Equal(t, "ededed", obj.Color)
}

func TestRawLabelsKeepsAbsentDistinctFromEmpty(t *testing.T) {
	var missing, null, empty RawPullRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1}`), &missing))
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "labels": null}`), &null))
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "labels": []}`), &empty))

	assert.Nil(t, missing.Labels)
	assert.Nil(t, null.Labels)
	assert.NotNil(t, empty.Labels)
	assert.Empty(t, empty.Labels)
}

func TestRawLabelsRejectsGarbage(t *testing.T) {
	var labels RawLabels
	assert.Error(t, json.Unmarshal([]byte(`{"name": "bug"}`), &labels))
	assert.Error(t, json.Unmarshal([]byte(`[42]`), &labels))
}

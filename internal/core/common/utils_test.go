package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type judged struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

func TestParseJSON(t *testing.T) {
	reply := "Sure! Here is the result:\n```json\n{\"label\": \"Supported\", \"reason\": \"Path 1 matches.\"}\n```"
	got, err := ParseJSON[judged](reply)
	require.NoError(t, err)
	assert.Equal(t, "Supported", got.Label)
	assert.Equal(t, "Path 1 matches.", got.Reason)
}

func TestParseJSONErrors(t *testing.T) {
	_, err := ParseJSON[judged]("no json here")
	assert.Error(t, err)

	_, err = ParseJSON[judged]("} backwards {")
	assert.Error(t, err)

	_, err = ParseJSON[judged](`{"label": "Supported", "reason": }`)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
}

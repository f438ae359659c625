package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{
			"bare object",
			`{"sql": "SELECT 1"}`,
			`{"sql": "SELECT 1"}`,
			false,
		},
		{
			"markdown fenced",
			"```json\n{\"sql\": \"SELECT 1\"}\n```",
			`{"sql": "SELECT 1"}`,
			false,
		},
		{
			"prose wrapped",
			`Here is the query you asked for: {"sql": "SELECT 1"} Hope that helps!`,
			`{"sql": "SELECT 1"}`,
			false,
		},
		{
			"reasoning tags stripped",
			"<think>the user wants revenue so I should sum order_total</think>\n{\"sql\": \"SELECT 1\"}",
			`{"sql": "SELECT 1"}`,
			false,
		},
		{
			"braces inside string literals",
			`{"sql": "SELECT '{a}' AS x", "summary": "uses } inside"}`,
			`{"sql": "SELECT '{a}' AS x", "summary": "uses } inside"}`,
			false,
		},
		{
			"escaped quotes inside strings",
			`{"summary": "he said \"hi\"", "sql": "SELECT 1"}`,
			`{"summary": "he said \"hi\"", "sql": "SELECT 1"}`,
			false,
		},
		{
			"array response",
			`The options are: ["a", "b"]`,
			`["a", "b"]`,
			false,
		},
		{
			"nested objects",
			`{"outer": {"inner": 1}, "sql": "SELECT 1"} trailing text`,
			`{"outer": {"inner": 1}, "sql": "SELECT 1"}`,
			false,
		},
		{
			"no json at all",
			"I cannot answer that question.",
			"",
			true,
		},
		{
			"unbalanced object",
			`{"sql": "SELECT 1"`,
			"",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseGeneration(t *testing.T) {
	gen, err := parseGeneration(`{"sql": "SELECT 1", "summary": "one row", "follow_ups": ["next?"]}`)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", gen.SQL)
	assert.Equal(t, "one row", gen.Summary)
	assert.Equal(t, []string{"next?"}, gen.FollowUps)
}

func TestParseGenerationRequiresSQL(t *testing.T) {
	_, err := parseGeneration(`{"summary": "no query here"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing sql")
}

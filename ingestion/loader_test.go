package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marquee/core"
)

func TestLoadDocuments_Array(t *testing.T) {
	input := `
	[
		{"aid": "m1", "title": "流浪地球2", "actors": ["吴京", "刘德华"], "total": 1, "completed": true, "score": "8.3"},
		{"aid": 42, "title": "星际穿越", "tags": "科幻"}
	]`

	records, err := LoadDocuments(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "m1", records[0].Aid)
	assert.Equal(t, []string{"吴京", "刘德华"}, records[0].Actors)
	assert.Equal(t, 1, records[0].Total)
	assert.True(t, records[0].Completed)
	assert.InDelta(t, 8.3, records[0].Score, 1e-9)

	assert.Equal(t, "42", records[1].Aid)
	assert.Equal(t, []string{"科幻"}, records[1].Tags)
	assert.Empty(t, records[1].Directors)
}

func TestLoadDocuments_Lines(t *testing.T) {
	input := "{\"aid\": \"m1\", \"title\": \"A\"}\n\n  {\"aid\": \"m2\", \"brief\": \"B\"}  \n"

	records, err := LoadDocuments(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Title)
	assert.Equal(t, "B", records[1].Brief)
}

func TestLoadDocuments_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bad array", input: `[{"aid": "m1"},`, want: "invalid catalog source"},
		{name: "bad line", input: "{\"aid\": \"m1\"}\n{oops}\n", want: "line 2"},
		{name: "missing aid in array", input: `[{"aid": "m1"}, {"title": "x"}]`, want: "element 1"},
		{name: "missing aid in line", input: `{"title": "x"}`, want: "line 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadDocuments(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSource)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadDocuments(strings.NewReader(`[{"title": "x"}]`))
	assert.ErrorIs(t, err, core.ErrEmptyAid)
}

func TestLoadDocuments_Empty(t *testing.T) {
	records, err := LoadDocuments(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"aid": "m1"}`), 0o644))

	records, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

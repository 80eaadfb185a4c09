package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marquee"
	"github.com/poiesic/marquee/ai/mock"
	"github.com/poiesic/marquee/config"
)

type harness struct {
	t      *testing.T
	config string
	out    bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Index.Path = filepath.Join(dir, "marquee.db")
	cfg.Ingestion.BatchSize = 2
	cfg.Ingestion.MaxAttempts = 1
	path := filepath.Join(dir, "marquee.yaml")
	require.NoError(t, config.Save(path, cfg))

	return &harness{t: t, config: path}
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	app := newApp(marquee.WithProvider(mock.NewMockProvider()))
	app.Writer = &h.out
	app.ErrWriter = io.Discard
	base := []string{"marquee", "--log-level", "error", "--config", h.config, "--env-file", filepath.Join(h.t.TempDir(), "none.env")}
	return app.Run(append(base, args...))
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.jsonl")
	lines := []string{
		`{"aid": "m1", "title": "流浪地球2", "tags": ["科幻"], "updateTime": "2023-01-22"}`,
		`{"aid": "m2", "title": "星际穿越", "tags": ["科幻"]}`,
		`{"aid": "m3", "title": "喜剧之王", "actors": ["周星驰"]}`,
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644))
	return path
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	app := newApp()
	app.Writer = io.Discard
	err := app.Run([]string{"marquee", "--log-level", "verbose", "index", "count"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestIndexLifecycle(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("index", "create"))
	assert.Contains(t, h.out.String(), "created index new_movies_index")

	assert.Error(t, h.run("index", "create"), "index already exists")
	require.NoError(t, h.run("index", "create", "--recreate"))

	require.NoError(t, h.run("index", "load", writeCatalog(t)))
	assert.Contains(t, h.out.String(), "indexed 3 of 3 documents")

	require.NoError(t, h.run("index", "count"))
	assert.Equal(t, "3", strings.TrimSpace(h.out.String()))

	require.NoError(t, h.run("index", "delete"))
	assert.Error(t, h.run("index", "count"))
}

func TestIndexLoad_CreatesIndex(t *testing.T) {
	h := newHarness(t)

	assert.Error(t, h.run("index", "load", writeCatalog(t)), "index does not exist yet")
	require.NoError(t, h.run("index", "load", "--create", "--restart", "--quiet", writeCatalog(t)))
	assert.Contains(t, h.out.String(), "indexed 3 of 3")

	assert.Error(t, h.run("index", "load"), "file argument is required")
}

func TestSearchCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("index", "load", "--create", "--quiet", writeCatalog(t)))

	t.Run("raw candidates", func(t *testing.T) {
		require.NoError(t, h.run("search", "--raw", "--limit", "2", "喜剧之王", "周星驰"))

		var view map[string]any
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &view))
		assert.Equal(t, "喜剧之王 周星驰", view["query"])
		assert.Equal(t, 2.0, view["total"])
		results := view["results"].([]any)
		assert.Equal(t, "m3", results[0].(map[string]any)["aid"])
		assert.Contains(t, view, "timings")
		assert.NotContains(t, view, "structured_response")
	})

	t.Run("answer", func(t *testing.T) {
		require.NoError(t, h.run("answer", "科幻电影"))

		var view map[string]any
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &view))
		response := view["structured_response"].(map[string]any)
		assert.Len(t, response["recommendations"], 3)
		assert.NotZero(t, view["timestamp"])
		entities := view["entities"].(map[string]any)
		assert.Contains(t, entities, "title")
	})

	t.Run("query is required", func(t *testing.T) {
		assert.Error(t, h.run("search", "  "))
	})
}

func TestEmbedCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("embed", "测试文本"))

	var view embedView
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &view))
	assert.Equal(t, "测试文本", view.Text)
	assert.Equal(t, mock.DefaultDimension, view.Dimension)
	assert.Equal(t, mock.DeterministicVector("测试文本", mock.DefaultDimension), view.Vector)
}

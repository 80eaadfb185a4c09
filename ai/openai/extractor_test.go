package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marquee/ai/mock"
	"github.com/poiesic/marquee/core"
)

func TestEntityExtractor_Extract(t *testing.T) {
	ctx := context.Background()

	t.Run("plain json", func(t *testing.T) {
		gen := mock.NewMockGenerator(`{"title":["流浪地球"],"languages":["国语"],"actors":["吴京","吴京"],"directors":[],"expansion_terms":["科幻","太空"]}`)
		e := NewEntityExtractor(gen, "")

		got := e.Extract(ctx, "吴京 流浪地球")

		assert.Equal(t, []string{"流浪地球"}, got.Entities.Get(core.CategoryTitle))
		assert.Equal(t, []string{"国语"}, got.Entities.Get(core.CategoryLanguages))
		assert.Equal(t, []string{"吴京"}, got.Entities.Get(core.CategoryActors), "duplicates removed")
		assert.Empty(t, got.Entities.Get(core.CategoryDirectors))
		assert.Equal(t, []string{"科幻", "太空"}, got.Expansions)
	})

	t.Run("prompt is the formatted template and the query is the user message", func(t *testing.T) {
		gen := mock.NewMockGenerator(`{}`)
		e := NewEntityExtractor(gen, "analyse: %s")

		e.Extract(ctx, "科幻电影")

		p := gen.LastPrompt()
		assert.Equal(t, "analyse: 科幻电影", p.System)
		assert.Equal(t, "科幻电影", p.User)
	})

	t.Run("fenced reply", func(t *testing.T) {
		gen := mock.NewMockGenerator("```json\n{\"actors\":[\"周星驰\"],\"expansion_terms\":[\"喜剧\"]}\n```")
		got := NewEntityExtractor(gen, "").Extract(ctx, "周星驰")

		assert.Equal(t, []string{"周星驰"}, got.Entities.Get(core.CategoryActors))
		assert.Equal(t, []string{"喜剧"}, got.Expansions)
	})

	t.Run("fence without closing line", func(t *testing.T) {
		gen := mock.NewMockGenerator("```\n{\"directors\":[\"张艺谋\"]}")
		got := NewEntityExtractor(gen, "").Extract(ctx, "张艺谋")

		assert.Equal(t, []string{"张艺谋"}, got.Entities.Get(core.CategoryDirectors))
	})

	t.Run("missing keys default to empty", func(t *testing.T) {
		gen := mock.NewMockGenerator(`{"expansion_terms":["宇宙","冒险"]}`)
		got := NewEntityExtractor(gen, "").Extract(ctx, "宇宙冒险")

		assert.True(t, got.Entities.IsEmpty())
		assert.Equal(t, []string{"宇宙", "冒险"}, got.Expansions)
		assert.ElementsMatch(t, []string{"宇宙", "冒险"}, got.FilterEntities().Get(core.CategoryTitle))
	})

	t.Run("repairable json", func(t *testing.T) {
		gen := mock.NewMockGenerator(`好的，结果如下：{"title":[], actors":["刘德华"],}`)
		got := NewEntityExtractor(gen, "").Extract(ctx, "刘德华")

		assert.Equal(t, []string{"刘德华"}, got.Entities.Get(core.CategoryActors))
	})
}

func TestEntityExtractor_Fallback(t *testing.T) {
	replies := []struct {
		name  string
		reply string
	}{
		{"not json", "我无法理解这个查询"},
		{"truncated", `{"title": ["流浪`},
		{"array", `["科幻"]`},
		{"null", `null`},
		{"wrong value type", `{"title": 42, "expansion_terms": ["科幻"]}`},
		{"empty", ""},
	}

	for _, tt := range replies {
		t.Run(tt.name, func(t *testing.T) {
			gen := mock.NewMockGenerator(tt.reply)
			got := NewEntityExtractor(gen, "").Extract(context.Background(), "科幻")

			assert.Equal(t, core.EmptyExtraction(), got)
		})
	}

	t.Run("backend error", func(t *testing.T) {
		gen := mock.NewMockGenerator("")
		gen.GenerateFunc = func(context.Context, string, string) (string, error) {
			return "", errors.New("connection refused")
		}
		got := NewEntityExtractor(gen, "").Extract(context.Background(), "科幻")

		assert.Equal(t, core.EmptyExtraction(), got)
		assert.Equal(t, 1, gen.CallCount())
	})
}

func TestParseExtraction(t *testing.T) {
	p := parseExtraction(`{"title": "流浪地球", "expansion_terms": ["科幻", ""]}`)
	require.NoError(t, p.Malformed)
	assert.Equal(t, []string{"流浪地球"}, p.Value.Entities.Get(core.CategoryTitle), "bare string is a one-element list")
	assert.Equal(t, []string{"科幻"}, p.Value.Expansions)

	p = parseExtraction(`not json`)
	assert.ErrorIs(t, p.Malformed, core.ErrExtraction)
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```\n", "{\"a\":1}"},
		{"```json\n{\"a\":1}", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
		{"```", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFence(tt.in), tt.in)
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid is unchanged", `{"a": [1, 2], "b": "x"}`, `{"a": [1, 2], "b": "x"}`},
		{"missing opening quote", `{"a": 1, type": "x"}`, `{"a": 1, "type": "x"}`},
		{"trailing commas", `{"a": [1, 2,], "b": 3,}`, `{"a": [1, 2], "b": 3}`},
		{"comma inside string kept", `{"a": "x,}"}`, `{"a": "x,}"}`},
		{"preamble and epilogue", `结果: {"a": 1} 完毕`, `{"a": 1}`},
		{"no object", `plain text`, `plain text`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

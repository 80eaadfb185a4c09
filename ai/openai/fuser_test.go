package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marquee/ai/mock"
	"github.com/poiesic/marquee/core"
)

func sampleResult() *core.SearchResult {
	entities := core.NewEntityBundle()
	entities.Add(core.CategoryTitle, "宇宙", "冒险")
	return &core.SearchResult{
		Query:      "科幻电影",
		Entities:   entities,
		Expansions: []string{"宇宙", "冒险"},
		Candidates: []core.CandidateRecord{
			{
				Aid:         "movie_001",
				Title:       "流浪地球2",
				Brief:       "太阳即将毁灭",
				Directors:   []string{"郭帆"},
				Actors:      []string{"吴京", "刘德华"},
				Tags:        []string{"科幻"},
				VoiceTags:   []string{"国语", "科幻"},
				PublishYear: "2023",
				Total:       1,
				Last:        1,
				Completed:   true,
				VPic:        "http://img/1.jpg",
				Score:       1.92,
			},
			{Aid: "movie_002", Title: "星际穿越", Tags: []string{"科幻"}},
		},
	}
}

func TestResponseFuser_Merge(t *testing.T) {
	gen := mock.NewMockGenerator(`{
		"summary": "为您找到两部科幻电影",
		"recommendations": [
			{"aid": "movie_001", "title": "错误的标题", "tags": ["动作"], "recommendation_text": "epic", "score": 9},
			{"aid": "movie_999", "title": "不存在的电影", "actors": ["某人"], "recommendation_text": "推荐", "score": "7.5"}
		],
		"suggestions": ["类似的太空电影", "吴京的其他作品"]
	}`)
	f := NewResponseFuser(gen, "")

	resp := f.Fuse(context.Background(), "科幻电影", sampleResult())

	assert.Equal(t, "为您找到两部科幻电影", resp.Summary)
	assert.Equal(t, []string{"类似的太空电影", "吴京的其他作品"}, resp.Suggestions)
	require.Len(t, resp.Recommendations, 2)

	merged := resp.Recommendations[0]
	assert.Equal(t, "movie_001", merged.Aid)
	assert.Equal(t, "epic", merged.RecommendationText, "model text is kept")
	assert.Equal(t, 9.0, merged.Score, "model score is kept")
	assert.Equal(t, "流浪地球2", merged.Title, "title comes from the record")
	assert.ElementsMatch(t, []string{"科幻", "国语"}, merged.Tags, "tags are the union from the record")
	assert.Equal(t, []string{"郭帆"}, merged.Directors)
	assert.Equal(t, "2023", merged.PublishYear)
	assert.True(t, merged.Completed)
	assert.Equal(t, 1, merged.Total)
	assert.Equal(t, "http://img/1.jpg", merged.VPic)

	passthrough := resp.Recommendations[1]
	assert.Equal(t, "movie_999", passthrough.Aid, "unmatched entries are not dropped")
	assert.Equal(t, "不存在的电影", passthrough.Title)
	assert.Equal(t, []string{"某人"}, passthrough.Actors)
	assert.Equal(t, 7.5, passthrough.Score)
}

func TestResponseFuser_MinimalMerge(t *testing.T) {
	result := &core.SearchResult{
		Candidates: []core.CandidateRecord{
			{Aid: "movie_001", Title: "流浪地球2", Tags: []string{"科幻"}},
		},
	}
	gen := mock.NewMockGenerator(`{"recommendations":[{"aid":"movie_001","recommendation_text":"epic","score":9}]}`)

	resp := NewResponseFuser(gen, "").Fuse(context.Background(), "科幻", result)

	require.Len(t, resp.Recommendations, 1)
	rec := resp.Recommendations[0]
	assert.Equal(t, "epic", rec.RecommendationText)
	assert.Equal(t, 9.0, rec.Score)
	assert.Equal(t, "流浪地球2", rec.Title)
	assert.Equal(t, []string{"科幻"}, rec.Tags)
}

func TestResponseFuser_Prompt(t *testing.T) {
	gen := mock.NewMockGenerator(`{}`)
	f := NewResponseFuser(gen, "")

	f.Fuse(context.Background(), "科幻电影", sampleResult())

	p := gen.LastPrompt()
	assert.Equal(t, "科幻电影", p.User)
	assert.Contains(t, p.System, "用户查询：科幻电影")
	assert.Contains(t, p.System, "检索结果数量：2")
	assert.Contains(t, p.System, `"aid":"movie_001"`)
	assert.Contains(t, p.System, `"tags":["科幻","国语"]`, "tags and voice tags are sent as one list")
	assert.NotContains(t, p.System, "http://img/1.jpg", "only the compact projection is sent")
	assert.Contains(t, p.System, `"title":["宇宙","冒险"]`)
}

func TestResponseFuser_Projection(t *testing.T) {
	c := sampleResult().Candidates[1]
	view := viewOf(&c)

	data, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"aid": "movie_002", "title": "星际穿越", "brief": "",
		"directors": [], "actors": [], "languages": [],
		"tags": ["科幻"], "publishYear": ""
	}`, string(data))
}

func TestResponseFuser_Fallback(t *testing.T) {
	replies := []string{
		"抱歉，我无法完成这个请求",
		`{"summary": "未闭合`,
		`["a", "b"]`,
		"",
		`{"recommendations": "not a list"}`,
		"null",
		"{}",
		`{"unrelated": 1}`,
		`{"summary": 42, "suggestions": ["a"]}`,
	}
	for _, reply := range replies {
		t.Run(reply, func(t *testing.T) {
			gen := mock.NewMockGenerator(reply)
			resp := NewResponseFuser(gen, "").Fuse(context.Background(), "科幻", sampleResult())

			assert.Equal(t, core.FallbackResponse(), resp)
		})
	}

	t.Run("backend error", func(t *testing.T) {
		gen := mock.NewMockGenerator("")
		gen.GenerateFunc = func(context.Context, string, string) (string, error) {
			return "", errors.New("timeout")
		}
		resp := NewResponseFuser(gen, "").Fuse(context.Background(), "科幻", sampleResult())

		assert.Equal(t, core.FallbackSummary, resp.Summary)
		assert.Empty(t, resp.Recommendations)
		assert.Empty(t, resp.Suggestions)
	})
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		malformed bool
	}{
		{"summary only", `{"summary": "ok"}`, false},
		{"recommendations only", `{"recommendations": []}`, false},
		{"both", `{"summary": "ok", "recommendations": [{"aid": "a"}]}`, false},
		{"null", "null", true},
		{"empty object", "{}", true},
		{"unrelated keys", `{"unrelated": 1}`, true},
		{"null recommendations", `{"recommendations": null}`, true},
		{"non-string summary", `{"summary": ["ok"]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResponse(tt.reply)
			if tt.malformed {
				assert.ErrorIs(t, got.Malformed, core.ErrFusionParse)
			} else {
				assert.NoError(t, got.Malformed)
			}
		})
	}
}

func TestResponseFuser_FencedReply(t *testing.T) {
	gen := mock.NewMockGenerator("```json\n{\"summary\":\"ok\",\"recommendations\":[],\"suggestions\":[],}\n```")
	resp := NewResponseFuser(gen, "").Fuse(context.Background(), "科幻", sampleResult())

	assert.Equal(t, "ok", resp.Summary)
	assert.NotNil(t, resp.Recommendations)
	assert.Empty(t, resp.Recommendations)
}

func TestResponseFuser_NilResult(t *testing.T) {
	gen := mock.NewMockGenerator(`{"summary":"无结果","recommendations":[{"aid":"x","score":1}]}`)
	resp := NewResponseFuser(gen, "").Fuse(context.Background(), "科幻", nil)

	assert.Equal(t, "无结果", resp.Summary)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "x", resp.Recommendations[0].Aid)
	assert.True(t, strings.Contains(gen.LastPrompt().System, "检索结果数量：0"))
}

func TestPrompts_Validate(t *testing.T) {
	assert.NoError(t, DefaultPrompts().Validate())
	assert.NoError(t, Prompts{}.Validate(), "empty templates use defaults")
	assert.Error(t, Prompts{EntityExpansion: "no verb"}.Validate())
	assert.Error(t, Prompts{ResponseGeneration: "%s %s"}.Validate())
	assert.NoError(t, Prompts{ResponseGeneration: "%s %s %s %d %s"}.Validate())
}

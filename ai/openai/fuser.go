// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
)

// candidateView is the compact projection of a candidate sent to the model.
type candidateView struct {
	Aid         string   `json:"aid"`
	Title       string   `json:"title"`
	Brief       string   `json:"brief"`
	Directors   []string `json:"directors"`
	Actors      []string `json:"actors"`
	Languages   []string `json:"languages"`
	Tags        []string `json:"tags"`
	PublishYear string   `json:"publishYear"`
}

func viewOf(c *core.CandidateRecord) candidateView {
	return candidateView{
		Aid:         c.Aid,
		Title:       c.Title,
		Brief:       c.Brief,
		Directors:   nonNil(c.Directors),
		Actors:      nonNil(c.Actors),
		Languages:   nonNil(c.Languages),
		Tags:        c.AllTags(),
		PublishYear: c.PublishYear,
	}
}

// rawResponse is the loosely typed reply shape. Recommendations stay untyped
// so that entries with unexpected field types still merge.
type rawResponse struct {
	Summary         any              `json:"summary"`
	Recommendations []map[string]any `json:"recommendations"`
	Suggestions     any              `json:"suggestions"`
}

// Reply keys authored by the model.
const (
	recommendationTextKey = "recommendation_text"
	recommendationScore   = "score"
)

// ResponseFuser implements ai.ResponseFuser on top of an ai.Generator.
type ResponseFuser struct {
	generator ai.Generator
	template  string
	logger    *slog.Logger
}

// newResponseFuser is an internal constructor that returns the concrete type.
func newResponseFuser(generator ai.Generator, template string) *ResponseFuser {
	if template == "" {
		template = ResponseGenerationPrompt
	}
	return &ResponseFuser{
		generator: generator,
		template:  template,
		logger:    slog.Default().With("component", "openai-fuser"),
	}
}

// NewResponseFuser creates a fuser using generator and the given prompt
// template. An empty template uses ResponseGenerationPrompt.
//
// Returns ai.ResponseFuser interface to enforce abstraction.
func NewResponseFuser(generator ai.Generator, template string) ai.ResponseFuser {
	return newResponseFuser(generator, template)
}

// Fuse asks the model to summarise and rank the candidates, then merges each
// ranked entry with its candidate by aid. An unusable reply yields
// core.FallbackResponse().
func (f *ResponseFuser) Fuse(ctx context.Context, query string, result *core.SearchResult) core.StructuredResponse {
	if result == nil {
		result = &core.SearchResult{Query: query}
	}

	prompt, err := f.buildPrompt(query, result)
	if err != nil {
		f.logger.Error("failed to build response prompt", "err", err)
		return core.FallbackResponse()
	}

	reply, err := f.generator.Generate(ctx, prompt, query)
	if err != nil {
		f.logger.Error("response generation failed",
			"query", query,
			"err", fmt.Errorf("%w: %w", core.ErrFusionParse, err))
		return core.FallbackResponse()
	}
	f.logger.Debug("raw response reply", "reply", reply)

	parsedReply := parseResponse(reply)
	if parsedReply.Malformed != nil {
		f.logger.Warn("unusable response reply", "query", query, "reply", reply, "err", parsedReply.Malformed)
		return core.FallbackResponse()
	}

	return merge(parsedReply.Value, result.Candidates)
}

func (f *ResponseFuser) buildPrompt(query string, result *core.SearchResult) (string, error) {
	views := make([]candidateView, len(result.Candidates))
	for i := range result.Candidates {
		views[i] = viewOf(&result.Candidates[i])
	}

	entities := make(map[string][]string, len(core.EntityCategories))
	for _, c := range core.EntityCategories {
		entities[string(c)] = result.Entities.Get(c)
	}

	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return "", err
	}
	expansionsJSON, err := json.Marshal(nonNil(result.Expansions))
	if err != nil {
		return "", err
	}
	resultsJSON, err := json.Marshal(views)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(f.template, query, entitiesJSON, expansionsJSON, len(views), resultsJSON), nil
}

// parseResponse decodes a fusion reply.
func parseResponse(reply string) parsed[rawResponse] {
	body := repairJSON(stripFence(reply))

	var raw rawResponse
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return malformed[rawResponse](fmt.Errorf("%w: %w", core.ErrFusionParse, err))
	}
	if _, ok := raw.Summary.(string); !ok && raw.Recommendations == nil {
		return malformed[rawResponse](fmt.Errorf("%w: reply has neither summary nor recommendations", core.ErrFusionParse))
	}
	return valid(raw)
}

// merge joins model-ranked entries with their candidate records. Matched
// entries keep the model's text and score and take every structured field
// from the candidate. Unmatched entries pass through as the model wrote them.
func merge(raw rawResponse, candidates []core.CandidateRecord) core.StructuredResponse {
	byAid := make(map[string]*core.CandidateRecord, len(candidates))
	for i := range candidates {
		byAid[candidates[i].Aid] = &candidates[i]
	}

	out := core.StructuredResponse{
		Summary:         core.AsString(raw.Summary),
		Recommendations: make([]core.Recommendation, 0, len(raw.Recommendations)),
		Suggestions:     core.AsStrings(raw.Suggestions),
	}

	for _, entry := range raw.Recommendations {
		if entry == nil {
			continue
		}
		aid := core.AsString(entry[core.FieldAid])

		var rec core.Recommendation
		if c, ok := byAid[aid]; ok && aid != "" {
			rec = fromCandidate(c)
		} else {
			// The model's own fields, normalized the same way as a stored document.
			passthrough := core.CandidateFromSource(aid, 0, entry)
			rec = fromCandidate(&passthrough)
		}
		rec.RecommendationText = core.AsString(entry[recommendationTextKey])
		rec.Score = core.AsFloat(entry[recommendationScore])
		out.Recommendations = append(out.Recommendations, rec)
	}
	return out
}

func fromCandidate(c *core.CandidateRecord) core.Recommendation {
	return core.Recommendation{
		Aid:         c.Aid,
		Title:       c.Title,
		Brief:       c.Brief,
		Directors:   nonNil(c.Directors),
		Actors:      nonNil(c.Actors),
		Languages:   nonNil(c.Languages),
		Tags:        c.AllTags(),
		PublishYear: c.PublishYear,
		Total:       c.Total,
		Last:        c.Last,
		Completed:   c.Completed,
		VPic:        c.VPic,
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

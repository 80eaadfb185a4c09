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

package core

//go:generate go run ../cmd/musgen

import (
	"strings"
	"time"
)

// EntityCategory names one of the fixed entity kinds recognized in a query.
type EntityCategory string

const (
	CategoryTitle     EntityCategory = "title"
	CategoryActors    EntityCategory = "actors"
	CategoryDirectors EntityCategory = "directors"
	CategoryLanguages EntityCategory = "languages"
)

// EntityCategories lists every recognized category in filter order.
var EntityCategories = []EntityCategory{
	CategoryTitle,
	CategoryLanguages,
	CategoryActors,
	CategoryDirectors,
}

// EntityBundle maps each category to the distinct literal strings extracted for it.
// A nil bundle is valid and empty.
type EntityBundle map[EntityCategory][]string

// NewEntityBundle returns a bundle with every category present and empty.
func NewEntityBundle() EntityBundle {
	b := make(EntityBundle, len(EntityCategories))
	for _, c := range EntityCategories {
		b[c] = []string{}
	}
	return b
}

// Add appends values to a category, skipping blanks and values already present.
func (b EntityBundle) Add(category EntityCategory, values ...string) {
	existing := b[category]
	if existing == nil {
		existing = []string{}
	}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || contains(existing, v) {
			continue
		}
		existing = append(existing, v)
	}
	b[category] = existing
}

// Get returns the values for a category, never nil.
func (b EntityBundle) Get(category EntityCategory) []string {
	if v, ok := b[category]; ok && v != nil {
		return v
	}
	return []string{}
}

// IsEmpty reports whether no category holds a value.
func (b EntityBundle) IsEmpty() bool {
	for _, v := range b {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the bundle with every category present.
func (b EntityBundle) Clone() EntityBundle {
	out := NewEntityBundle()
	for c, v := range b {
		out.Add(c, v...)
	}
	return out
}

// Extraction is the result of analysing a raw query: entities plus
// free-text expansion terms in the order the model produced them.
type Extraction struct {
	Entities   EntityBundle
	Expansions []string
}

// EmptyExtraction is the safe default used whenever extraction fails.
func EmptyExtraction() Extraction {
	return Extraction{
		Entities:   NewEntityBundle(),
		Expansions: []string{},
	}
}

// FilterEntities returns the entities to filter retrieval by. When no title was
// recognized the expansion terms stand in for the title.
func (e Extraction) FilterEntities() EntityBundle {
	filters := e.Entities.Clone()
	if len(filters.Get(CategoryTitle)) == 0 {
		filters[CategoryTitle] = []string{}
		filters.Add(CategoryTitle, e.Expansions...)
	}
	return filters
}

// VectorText chooses the text that gets embedded for the similarity query:
// the expansion terms joined by a single space, or the raw query if there are none.
func (e Extraction) VectorText(query string) string {
	if len(e.Expansions) == 0 {
		return query
	}
	return strings.Join(e.Expansions, " ")
}

// CandidateRecord is one normalized retrieval hit. Aid is the join key.
type CandidateRecord struct {
	Aid         string
	Title       string
	Brief       string
	Content     string
	Vendor      string
	Channel     string
	PublishYear string
	VPic        string
	VPicMd5     string
	Actors      []string
	Directors   []string
	Languages   []string
	Tags        []string
	VoiceTags   []string
	Score       float64
	Completed   bool
	Total       int
	Last        int
	UpdateTime  string
	SysTime     string
}

// AllTags returns the distinct union of Tags and VoiceTags.
func (c *CandidateRecord) AllTags() []string {
	return UnionDistinct(c.Tags, c.VoiceTags)
}

// DocumentText builds the text a catalog document is embedded from:
// title, brief, actors, directors, tags and voice tags joined by spaces.
// Returns "" when the document has none of these parts.
func (c *CandidateRecord) DocumentText() string {
	parts := make([]string, 0, 8)
	if c.Title != "" {
		parts = append(parts, c.Title)
	}
	if c.Brief != "" {
		parts = append(parts, c.Brief)
	}
	parts = append(parts, c.Actors...)
	parts = append(parts, c.Directors...)
	parts = append(parts, c.Tags...)
	parts = append(parts, c.VoiceTags...)
	return strings.Join(parts, " ")
}

// MovieDocument is a catalog entry as stored in a retrieval backend.
type MovieDocument struct {
	Record CandidateRecord
	Vector []float32 // Embedding of Record.DocumentText(), empty when there was no text
}

// FieldFilter is one boost-weighted match clause layered on the similarity score.
type FieldFilter struct {
	Field string
	Value string
	Boost float64
}

// VectorQuery is a similarity-plus-filter request against a retrieval backend.
type VectorQuery struct {
	Vector  []float32
	Filters []FieldFilter
	Size    int
}

// Hit is a raw retrieval result before normalization.
// Source holds whatever stored fields the backend returned.
type Hit struct {
	ID     string
	Score  float64
	Source map[string]any
}

// Timings records how long each pipeline stage took.
type Timings struct {
	Extraction time.Duration
	Embedding  time.Duration
	Retrieval  time.Duration
	Processing time.Duration
	Fusion     time.Duration
	Total      time.Duration
}

// SearchResult is the orchestrator's output: candidates in backend relevance
// order plus the entities and expansions that produced them.
type SearchResult struct {
	Query      string
	VectorText string
	Entities   EntityBundle
	Expansions []string
	Candidates []CandidateRecord
	Timings    Timings
}

// Recommendation is one LLM-ranked entry merged with its retrieval record.
// RecommendationText and Score are authored by the model; every other field
// comes from the matching CandidateRecord when one exists.
type Recommendation struct {
	Aid                string   `json:"aid"`
	Title              string   `json:"title"`
	Brief              string   `json:"brief"`
	Directors          []string `json:"directors"`
	Actors             []string `json:"actors"`
	Languages          []string `json:"languages"`
	Tags               []string `json:"tags"`
	PublishYear        string   `json:"publishYear"`
	Total              int      `json:"total"`
	Last               int      `json:"last"`
	Completed          bool     `json:"completed"`
	VPic               string   `json:"vPic"`
	RecommendationText string   `json:"recommendation_text"`
	Score              float64  `json:"score"`
}

// StructuredResponse is the fused natural-language answer.
type StructuredResponse struct {
	Summary         string           `json:"summary"`
	Recommendations []Recommendation `json:"recommendations"`
	Suggestions     []string         `json:"suggestions"`
}

// FallbackSummary is returned when the generated response cannot be used.
const FallbackSummary = "抱歉，生成响应时出现错误。"

// FallbackResponse is the deterministic response used when fusion fails.
func FallbackResponse() StructuredResponse {
	return StructuredResponse{
		Summary:         FallbackSummary,
		Recommendations: []Recommendation{},
		Suggestions:     []string{},
	}
}

// Answer is the complete result of one query: retrieval plus the fused response.
type Answer struct {
	Search    *SearchResult
	Response  StructuredResponse
	Timestamp time.Time
}

// Checkpoint records how far a bulk load of one source file has progressed.
// Offset counts documents from the start of the source that are already indexed.
type Checkpoint struct {
	Source    string
	Offset    int
	UpdatedAt time.Time
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

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

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/storage"
)

// Timeouts bounds each backend call. A zero value leaves that stage bounded
// only by the caller's context.
type Timeouts struct {
	Extraction time.Duration
	Embedding  time.Duration
	Retrieval  time.Duration
	Fusion     time.Duration
}

// Searcher runs the retrieval pipeline: entity extraction, query embedding,
// vector search with entity boosts and, for Answer, response fusion.
type Searcher struct {
	index     storage.Index
	embedder  ai.Embedder
	extractor ai.EntityExtractor
	fuser     ai.ResponseFuser
	limit     int
	timeouts  Timeouts
	monitor   SearchMonitor
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLimit sets the number of hits requested from the index.
// Default is storage.DefaultSearchSize.
func WithLimit(n int) Option {
	return func(s *Searcher) error {
		if n <= 0 {
			return fmt.Errorf("limit must be positive, got %d", n)
		}
		s.limit = n
		return nil
	}
}

// WithTimeouts sets per-stage timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(s *Searcher) error {
		if t.Extraction < 0 || t.Embedding < 0 || t.Retrieval < 0 || t.Fusion < 0 {
			return errors.New("timeouts cannot be negative")
		}
		s.timeouts = t
		return nil
	}
}

// WithMonitor sets the monitor used when a call passes none.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher over index using the provider's services.
func NewSearcher(index storage.Index, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		index:     index,
		embedder:  provider.Embedder(),
		extractor: provider.EntityExtractor(),
		fuser:     provider.ResponseFuser(),
		limit:     storage.DefaultSearchSize,
		monitor:   &noopMonitor{},
		logger:    slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search retrieves candidates for query in the index's relevance order.
func (s *Searcher) Search(ctx context.Context, query string) (*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor retrieves candidates for query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Embedding failures wrap core.ErrEmbedding and index failures wrap
// core.ErrRetrieval. Extraction problems never fail the search.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, monitor SearchMonitor) (*core.SearchResult, error) {
	if monitor == nil {
		monitor = s.monitor
	}
	start := time.Now()

	if normalizeQuery(query) == "" {
		return nil, ErrEmptyQuery
	}
	monitor.Start(query)

	result := &core.SearchResult{Query: query}

	// 1. Entities and expansion terms
	stageStart := time.Now()
	extraction := s.extract(ctx, query)
	result.Timings.Extraction = time.Since(stageStart)
	result.Entities = extraction.FilterEntities()
	result.Expansions = extraction.Expansions
	if result.Expansions == nil {
		result.Expansions = []string{}
	}
	monitor.AfterExtraction(extraction)

	// 2. Query vector
	result.VectorText = extraction.VectorText(query)
	stageStart = time.Now()
	vector, err := s.embed(ctx, result.VectorText)
	result.Timings.Embedding = time.Since(stageStart)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "text", result.VectorText, "err", err)
		return nil, err
	}
	monitor.AfterEmbedding(result.VectorText, vector)

	// 3. Vector search with entity boosts
	stageStart = time.Now()
	hits, err := s.retrieve(ctx, core.VectorQuery{
		Vector:  vector,
		Filters: storage.FiltersFor(result.Entities),
		Size:    s.limit,
	})
	result.Timings.Retrieval = time.Since(stageStart)
	if err != nil {
		s.logger.Error("error querying index", "query", query, "index", s.index.Name(), "err", err)
		return nil, fmt.Errorf("%w: query %q: %w", core.ErrRetrieval, query, err)
	}
	monitor.AfterRetrieval(hits)

	// 4. Normalize, keeping the index's order
	stageStart = time.Now()
	result.Candidates = make([]core.CandidateRecord, 0, len(hits))
	for _, hit := range hits {
		result.Candidates = append(result.Candidates, core.CandidateFromSource(hit.ID, hit.Score, hit.Source))
	}
	result.Timings.Processing = time.Since(stageStart)
	result.Timings.Total = time.Since(start)

	s.logger.Info("search complete",
		"query", query,
		"candidates", len(result.Candidates),
		"extraction", result.Timings.Extraction,
		"embedding", result.Timings.Embedding,
		"retrieval", result.Timings.Retrieval,
		"processing", result.Timings.Processing,
		"total", result.Timings.Total)
	monitor.Finish(result)

	return result, nil
}

// Answer runs the full pipeline and fuses the candidates into a response.
func (s *Searcher) Answer(ctx context.Context, query string) (*core.Answer, error) {
	return s.AnswerWithMonitor(ctx, query, nil)
}

// AnswerWithMonitor runs the full pipeline with monitoring. It fails only
// when Search fails; an unusable generated response becomes
// core.FallbackResponse().
func (s *Searcher) AnswerWithMonitor(ctx context.Context, query string, monitor SearchMonitor) (*core.Answer, error) {
	if monitor == nil {
		monitor = s.monitor
	}
	start := time.Now()

	result, err := s.SearchWithMonitor(ctx, query, monitor)
	if err != nil {
		return nil, err
	}

	stageStart := time.Now()
	response := s.fuse(ctx, result)
	result.Timings.Fusion = time.Since(stageStart)
	result.Timings.Total = time.Since(start)
	monitor.AfterFusion(response)

	s.logger.Info("answer complete",
		"query", result.Query,
		"recommendations", len(response.Recommendations),
		"fusion", result.Timings.Fusion,
		"total", result.Timings.Total)

	return &core.Answer{
		Search:    result,
		Response:  response,
		Timestamp: time.Now(),
	}, nil
}

// Embed returns the embedding of text as the pipeline would compute it for a query.
func (s *Searcher) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, text)
}

func (s *Searcher) extract(ctx context.Context, query string) core.Extraction {
	ctx, cancel := s.withTimeout(ctx, s.timeouts.Extraction)
	defer cancel()
	return s.extractor.Extract(ctx, query)
}

func (s *Searcher) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := s.withTimeout(ctx, s.timeouts.Embedding)
	defer cancel()

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		if errors.Is(err, core.ErrEmbedding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: text %q: %w", core.ErrEmbedding, text, err)
	}
	return vector, nil
}

func (s *Searcher) retrieve(ctx context.Context, q core.VectorQuery) ([]core.Hit, error) {
	ctx, cancel := s.withTimeout(ctx, s.timeouts.Retrieval)
	defer cancel()
	return s.index.VectorSearch(ctx, q)
}

func (s *Searcher) fuse(ctx context.Context, result *core.SearchResult) core.StructuredResponse {
	ctx, cancel := s.withTimeout(ctx, s.timeouts.Fusion)
	defer cancel()
	return s.fuser.Fuse(ctx, result.Query, result)
}

func (s *Searcher) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

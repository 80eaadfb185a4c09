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

package ai

import (
	"context"

	"github.com/poiesic/marquee/core"
)

type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Failures wrap core.ErrEmbedding.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type Generator interface {
	// Generate sends a system prompt and a user message and returns the raw
	// completion text. The text is not guaranteed to be valid JSON.
	Generate(ctx context.Context, system, user string) (string, error)
}

type EntityExtractor interface {
	// Extract finds entities and expansion terms in a query.
	// It never fails: any backend or parse problem yields core.EmptyExtraction().
	Extract(ctx context.Context, query string) core.Extraction
}

type ResponseFuser interface {
	// Fuse asks a model to summarise and rank candidates for the query, then
	// merges each ranked entry with its candidate record by aid.
	// It never fails: an unusable reply yields core.FallbackResponse().
	Fuse(ctx context.Context, query string, result *core.SearchResult) core.StructuredResponse
}

type InferenceBackend interface {
	// Infer runs the model on one sequence and returns its per-token hidden
	// states, shaped [seq, dim] or [1, seq, dim]. ids and mask have equal length.
	Infer(ctx context.Context, ids, mask []int64) (Tensor, error)
}

type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// EntityExtractor returns the query analysis service.
	EntityExtractor() EntityExtractor

	// ResponseFuser returns the response fusion service.
	ResponseFuser() ResponseFuser

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

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
	"fmt"
	"log/slog"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder calls a remote OpenAI-compatible /embeddings endpoint. It is used
// when the embedding strategy is "remote" instead of a local ONNX model.
type Embedder struct {
	remote    embeddings.Embedder
	dimension int
	logger    *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config, dimension int) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding client for %s: %w", config.EmbeddingHost, err)
	}
	remote, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		remote:    remote,
		dimension: dimension,
		logger:    slog.Default().With("component", "remote-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates a remote embedder. When dimension is positive every
// returned vector must have exactly that many components.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config, dimension int) (ai.Embedder, error) {
	return newEmbedder(config, dimension)
}

// EmbedText embeds one text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in one request and returns vectors in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("embedding", "count", len(texts))

	vectors, err := e.remote.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("embedding request failed", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %d texts: %w", core.ErrEmbedding, len(texts), err)
	}
	if err := e.check(texts, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// check rejects a reply with the wrong number of vectors, an empty vector, or
// a vector of the wrong width.
func (e *Embedder) check(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: requested %d embeddings, got %d", core.ErrEmbedding, len(texts), len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: text %q: empty vector", core.ErrEmbedding, texts[i])
		}
		want := e.dimension
		if want <= 0 {
			want = len(v)
		}
		if err := core.ValidateVector(v, want); err != nil {
			return fmt.Errorf("%w: text %q: %w", core.ErrEmbedding, texts[i], err)
		}
	}
	return nil
}

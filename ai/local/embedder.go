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

package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/tokenizer"
)

// Embedder implements ai.Embedder over a tokenizer and an inference backend.
type Embedder struct {
	tokenizer *tokenizer.Tokenizer
	backend   ai.InferenceBackend
	variant   Variant
	cache     *Cache
	closer    io.Closer
	logger    *slog.Logger
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithCache keeps the size most recently embedded texts. Default: no cache.
func WithCache(size int) Option {
	return func(e *Embedder) {
		e.cache = NewCache(size)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Embedder) {
		e.logger = logger
	}
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(tok *tokenizer.Tokenizer, backend ai.InferenceBackend, variant Variant, opts ...Option) (*Embedder, error) {
	if tok == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", tokenizer.ErrTokenization)
	}
	if backend == nil {
		return nil, errors.New("local embedder: inference backend is required")
	}
	if err := variant.validate(); err != nil {
		return nil, err
	}
	if tok.MaxLength() != variant.MaxLength {
		return nil, fmt.Errorf("local embedder: tokenizer max length %d does not match variant %s (%d)",
			tok.MaxLength(), variant.Name, variant.MaxLength)
	}

	e := &Embedder{
		tokenizer: tok,
		backend:   backend,
		variant:   variant,
		logger:    slog.Default().With("component", "local-embedder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewEmbedder creates an embedder over an existing tokenizer and backend.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(tok *tokenizer.Tokenizer, backend ai.InferenceBackend, variant Variant, opts ...Option) (ai.Embedder, error) {
	return newEmbedder(tok, backend, variant, opts...)
}

// Config describes a complete on-disk embedding model.
type Config struct {
	ModelPath         string
	VocabPath         string
	SpecialTokensPath string
	LibraryPath       string
	Variant           Variant
	Sessions          int
	IntraOpThreads    int
	CacheSize         int
}

// Open loads the vocabulary and prepares an ONNX model for cfg. The model
// itself loads on first use. The returned Embedder owns the model; Close it.
func Open(cfg Config, opts ...Option) (*Embedder, error) {
	vocab, err := tokenizer.LoadVocabulary(cfg.VocabPath, cfg.SpecialTokensPath)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.New(vocab, cfg.Variant.MaxLength)
	if err != nil {
		return nil, err
	}

	model := NewONNXModel(ONNXConfig{
		ModelPath:      cfg.ModelPath,
		LibraryPath:    cfg.LibraryPath,
		IntraOpThreads: cfg.IntraOpThreads,
	}, WithSessions(cfg.Sessions))

	opts = append([]Option{WithCache(cfg.CacheSize)}, opts...)
	e, err := newEmbedder(tok, model, cfg.Variant, opts...)
	if err != nil {
		_ = model.Close()
		return nil, err
	}
	e.closer = model
	return e, nil
}

// Dimension returns the vector width this embedder produces.
func (e *Embedder) Dimension() int {
	return e.variant.Dimension
}

// Variant returns the model configuration in use.
func (e *Embedder) Variant() Variant {
	return e.variant
}

// EmbedText tokenizes text, runs inference, pools and validates the result.
// Every failure wraps core.ErrEmbedding and names the text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		return v, nil
	}

	input, err := e.tokenizer.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("%w: text %q: %w", core.ErrEmbedding, text, err)
	}
	mask := input.AttentionMask()

	out, err := e.backend.Infer(ctx, input.IDs, mask)
	if err != nil {
		e.logger.Error("inference failed", "variant", e.variant.Name, "err", err)
		return nil, fmt.Errorf("%w: text %q: %w", core.ErrEmbedding, text, err)
	}

	vec, err := Pool(out, mask, e.variant)
	if err != nil {
		return nil, fmt.Errorf("%w: text %q: %w", core.ErrEmbedding, text, err)
	}
	if err := core.ValidateVector(vec, e.variant.Dimension); err != nil {
		e.logger.Error("invalid embedding", "variant", e.variant.Name, "shape", out.Shape, "err", err)
		return nil, fmt.Errorf("%w: text %q: shape %v: %w", core.ErrEmbedding, text, out.Shape, err)
	}

	e.logger.Debug("generated embedding",
		"variant", e.variant.Name,
		"tokens", mask.Attended(),
		"shape", out.Shape)

	e.cache.Add(text, vec)
	return vec, nil
}

// EmbedTexts embeds each text in order and stops at the first failure.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Close releases the model if this embedder opened it.
func (e *Embedder) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

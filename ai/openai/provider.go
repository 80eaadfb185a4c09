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
	"io"
	"log/slog"

	"github.com/poiesic/marquee/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages the generator-backed extractor and fuser and an embedder that
// is either remote or supplied by the caller.
type Provider struct {
	config    *ai.Config
	embedder  ai.Embedder
	generator *Generator
	extractor *EntityExtractor
	fuser     *ResponseFuser
	logger    *slog.Logger
}

type providerOptions struct {
	embedder  ai.Embedder
	dimension int
	prompts   Prompts
}

// ProviderOption configures NewProvider.
type ProviderOption func(*providerOptions)

// WithEmbedder uses e instead of a remote embedder. If e implements io.Closer
// the provider closes it.
func WithEmbedder(e ai.Embedder) ProviderOption {
	return func(o *providerOptions) {
		o.embedder = e
	}
}

// WithDimension enforces a vector width on the remote embedder.
func WithDimension(dim int) ProviderOption {
	return func(o *providerOptions) {
		o.dimension = dim
	}
}

// WithPrompts overrides the prompt templates.
func WithPrompts(p Prompts) ProviderOption {
	return func(o *providerOptions) {
		o.prompts = p
	}
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config, opts ...ProviderOption) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var o providerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.prompts.Validate(); err != nil {
		return nil, err
	}
	prompts := o.prompts.withDefaults()

	generator, err := newGenerator(config)
	if err != nil {
		return nil, err
	}

	embedder := o.embedder
	if embedder == nil {
		remote, err := newEmbedder(config, o.dimension)
		if err != nil {
			return nil, err
		}
		embedder = remote
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		generator: generator,
		extractor: newEntityExtractor(generator, prompts.EntityExpansion),
		fuser:     newResponseFuser(generator, prompts.ResponseGeneration),
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// EntityExtractor returns the query analysis service.
func (p *Provider) EntityExtractor() ai.EntityExtractor {
	return p.extractor
}

// ResponseFuser returns the response fusion service.
func (p *Provider) ResponseFuser() ai.ResponseFuser {
	return p.fuser
}

// Close releases the embedder if it holds resources. The HTTP clients need no
// explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	if c, ok := p.embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

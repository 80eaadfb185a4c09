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

package mock

import (
	"sync/atomic"

	"github.com/poiesic/marquee/ai"
)

// MockProvider bundles the three mock services behind ai.AIProvider so the
// searcher, indexer and engine can run without models or an LLM.
type MockProvider struct {
	embedder  *MockEmbedder
	extractor *MockEntityExtractor
	fuser     *MockResponseFuser
	closed    atomic.Bool
}

// NewMockProvider returns a provider whose services use their default
// behavior. Reach the concrete mocks through GetMockEmbedder, GetMockExtractor
// and GetMockFuser.
//
// Returns ai.AIProvider interface for consistency with production constructors.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		extractor: NewMockEntityExtractor(),
		fuser:     NewMockResponseFuser(),
	}
}

// NewMockProviderWithServices wires caller-built mocks, for tests that need
// to script one service before the provider exists.
func NewMockProviderWithServices(embedder *MockEmbedder, extractor *MockEntityExtractor, fuser *MockResponseFuser) *MockProvider {
	return &MockProvider{
		embedder:  embedder,
		extractor: extractor,
		fuser:     fuser,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// EntityExtractor returns the mock extractor.
func (p *MockProvider) EntityExtractor() ai.EntityExtractor {
	return p.extractor
}

// ResponseFuser returns the mock fuser.
func (p *MockProvider) ResponseFuser() ai.ResponseFuser {
	return p.fuser
}

// Close records that the provider was closed. It never fails.
func (p *MockProvider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed.Load()
}

// GetMockEmbedder exposes the embedder for call assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExtractor exposes the extractor for scripting replies.
func (p *MockProvider) GetMockExtractor() *MockEntityExtractor {
	return p.extractor
}

// GetMockFuser exposes the fuser.
func (p *MockProvider) GetMockFuser() *MockResponseFuser {
	return p.fuser
}

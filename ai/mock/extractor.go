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
	"context"
	"sync/atomic"

	"github.com/poiesic/marquee/core"
)

// MockEntityExtractor is a test double for ai.EntityExtractor.
type MockEntityExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, returns core.EmptyExtraction().
	ExtractFunc func(ctx context.Context, query string) core.Extraction

	callCount atomic.Int64
}

// NewMockEntityExtractor creates a mock extractor with default behavior.
func NewMockEntityExtractor() *MockEntityExtractor {
	return &MockEntityExtractor{}
}

// NewStaticEntityExtractor creates a mock extractor that always returns e.
func NewStaticEntityExtractor(e core.Extraction) *MockEntityExtractor {
	return &MockEntityExtractor{
		ExtractFunc: func(context.Context, string) core.Extraction {
			return core.Extraction{
				Entities:   e.Entities.Clone(),
				Expansions: append([]string{}, e.Expansions...),
			}
		},
	}
}

// Extract returns the configured extraction.
func (m *MockEntityExtractor) Extract(ctx context.Context, query string) core.Extraction {
	m.callCount.Add(1)

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, query)
	}
	return core.EmptyExtraction()
}

// CallCount returns the number of times Extract was called.
func (m *MockEntityExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockEntityExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractFunc = nil
}

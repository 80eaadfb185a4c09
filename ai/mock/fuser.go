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
	"fmt"
	"sync/atomic"

	"github.com/poiesic/marquee/core"
)

// MockResponseFuser is a test double for ai.ResponseFuser.
type MockResponseFuser struct {
	// FuseFunc is called by Fuse if set.
	FuseFunc func(ctx context.Context, query string, result *core.SearchResult) core.StructuredResponse

	callCount atomic.Int64
}

// NewMockResponseFuser creates a mock fuser with default behavior.
func NewMockResponseFuser() *MockResponseFuser {
	return &MockResponseFuser{}
}

// Fuse recommends every candidate in retrieval order by default.
func (m *MockResponseFuser) Fuse(ctx context.Context, query string, result *core.SearchResult) core.StructuredResponse {
	m.callCount.Add(1)

	if m.FuseFunc != nil {
		return m.FuseFunc(ctx, query, result)
	}

	resp := core.StructuredResponse{
		Summary:         fmt.Sprintf("%d results for %s", len(result.Candidates), query),
		Recommendations: make([]core.Recommendation, 0, len(result.Candidates)),
		Suggestions:     []string{},
	}
	for _, c := range result.Candidates {
		resp.Recommendations = append(resp.Recommendations, core.Recommendation{
			Aid:   c.Aid,
			Title: c.Title,
			Score: c.Score,
		})
	}
	return resp
}

// CallCount returns the number of times Fuse was called.
func (m *MockResponseFuser) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockResponseFuser) Reset() {
	m.callCount.Store(0)
	m.FuseFunc = nil
}

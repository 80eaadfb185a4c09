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

	"github.com/poiesic/marquee/ai"
)

// MockInferenceBackend is a test double for ai.InferenceBackend.
type MockInferenceBackend struct {
	// InferFunc is called by Infer if set.
	InferFunc func(ctx context.Context, ids, mask []int64) (ai.Tensor, error)

	// Dimension is the hidden width of default output. Zero means DefaultDimension.
	Dimension int

	// Batched makes default output [1, seq, dim] instead of [seq, dim].
	Batched bool

	callCount atomic.Int64
}

// NewMockInferenceBackend creates a backend with deterministic default output.
func NewMockInferenceBackend() *MockInferenceBackend {
	return &MockInferenceBackend{}
}

// Infer returns hidden states where row i, column j is (ids[i] + j + 1) / 1000.
func (m *MockInferenceBackend) Infer(ctx context.Context, ids, mask []int64) (ai.Tensor, error) {
	m.callCount.Add(1)

	if m.InferFunc != nil {
		return m.InferFunc(ctx, ids, mask)
	}
	if err := ctx.Err(); err != nil {
		return ai.Tensor{}, err
	}

	dim := m.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	data := make([]float32, 0, len(ids)*dim)
	for _, id := range ids {
		for j := 0; j < dim; j++ {
			data = append(data, float32(id+int64(j)+1)/1000)
		}
	}

	shape := []int64{int64(len(ids)), int64(dim)}
	if m.Batched {
		shape = append([]int64{1}, shape...)
	}
	return ai.Tensor{Shape: shape, Data: data}, nil
}

// CallCount returns the number of times Infer was called.
func (m *MockInferenceBackend) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *MockInferenceBackend) Reset() {
	m.callCount.Store(0)
	m.InferFunc = nil
}

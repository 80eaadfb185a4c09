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
	"errors"
	"fmt"
	"math"

	"github.com/poiesic/marquee/ai"
)

// ErrShape indicates the backend output is not a usable hidden-state tensor.
var ErrShape = errors.New("unexpected hidden-state shape")

// hiddenStates is a [seq, dim] row-major view over backend output.
type hiddenStates struct {
	seq  int
	dim  int
	data []float32
}

func (h hiddenStates) row(i int) []float32 {
	return h.data[i*h.dim : (i+1)*h.dim]
}

// unwrap accepts [seq, dim] or a single-batch [1, seq, dim] tensor.
func unwrap(t ai.Tensor) (hiddenStates, error) {
	var seq, dim int64
	switch len(t.Shape) {
	case 2:
		seq, dim = t.Shape[0], t.Shape[1]
	case 3:
		if t.Shape[0] != 1 {
			return hiddenStates{}, fmt.Errorf("%w: batch size %d in %v", ErrShape, t.Shape[0], t.Shape)
		}
		seq, dim = t.Shape[1], t.Shape[2]
	default:
		return hiddenStates{}, fmt.Errorf("%w: rank %d in %v", ErrShape, len(t.Shape), t.Shape)
	}
	if seq < 1 || dim < 1 {
		return hiddenStates{}, fmt.Errorf("%w: empty dimension in %v", ErrShape, t.Shape)
	}
	if err := t.Check(); err != nil {
		return hiddenStates{}, fmt.Errorf("%w: %w", ErrShape, err)
	}
	return hiddenStates{seq: int(seq), dim: int(dim), data: t.Data}, nil
}

// meanPool averages rows component-wise. With PoolMean every row counts; with
// PoolMaskedMean only rows whose mask entry is non-zero do, and a sequence with
// nothing attended pools to the zero vector.
func meanPool(h hiddenStates, mask []int64, mode PoolingMode) []float32 {
	sum := make([]float64, h.dim)
	count := 0
	for i := 0; i < h.seq; i++ {
		if mode == PoolMaskedMean && (i >= len(mask) || mask[i] == 0) {
			continue
		}
		for j, x := range h.row(i) {
			sum[j] += float64(x)
		}
		count++
	}

	out := make([]float32, h.dim)
	if count == 0 {
		return out
	}
	for j := range sum {
		out[j] = float32(sum[j] / float64(count))
	}
	return out
}

// NormalizeVector returns v scaled to unit Euclidean length.
// A zero vector is returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	result := make([]float32, len(v))
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		copy(result, v)
		return result
	}
	for i, x := range v {
		result[i] = float32(float64(x) / norm)
	}
	return result
}

// Pool reduces backend output to one sentence vector according to the variant.
// The vector is not validated.
func Pool(t ai.Tensor, mask []int64, v Variant) ([]float32, error) {
	h, err := unwrap(t)
	if err != nil {
		return nil, err
	}
	vec := meanPool(h, mask, v.Pooling)
	if v.Normalize {
		vec = NormalizeVector(vec)
	}
	return vec, nil
}

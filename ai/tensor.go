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

import "fmt"

// Tensor is a dense row-major float32 tensor as returned by an inference backend.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewTensor builds a tensor from rows of equal width, shaped [len(rows), width].
func NewTensor(rows [][]float32) Tensor {
	var width int
	if len(rows) > 0 {
		width = len(rows[0])
	}
	data := make([]float32, 0, len(rows)*width)
	for _, r := range rows {
		data = append(data, r...)
	}
	return Tensor{Shape: []int64{int64(len(rows)), int64(width)}, Data: data}
}

// Elements returns the element count implied by Shape.
func (t Tensor) Elements() int64 {
	if len(t.Shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Check reports an error when Data does not hold exactly the elements Shape describes.
func (t Tensor) Check() error {
	if int64(len(t.Data)) != t.Elements() {
		return fmt.Errorf("tensor shape %v needs %d elements, has %d", t.Shape, t.Elements(), len(t.Data))
	}
	return nil
}

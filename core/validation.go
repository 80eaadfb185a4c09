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

package core

import (
	"fmt"
	"math"
)

// ValidateDocument validates a MovieDocument according to domain rules.
//
// Validation rules:
//   - Aid must not be empty
//   - Vector, when present, must be finite
//
// NOT validated:
//   - Vector dimension (checked by the backend against its own schema)
//   - Optional fields (absent fields are stored as zero values)
func ValidateDocument(doc *MovieDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Record.Aid == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyAid)
	}

	if len(doc.Vector) > 0 {
		if err := ValidateVector(doc.Vector, len(doc.Vector)); err != nil {
			return fmt.Errorf("%w: aid %s: %w", ErrInvalidDocument, doc.Record.Aid, err)
		}
	}

	return nil
}

// ValidateVector checks that v has exactly dim components and none is NaN or Inf.
func ValidateVector(v []float32, dim int) error {
	if len(v) != dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dim, len(v))
	}
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is %v", ErrNonFinite, i, x)
		}
	}
	return nil
}

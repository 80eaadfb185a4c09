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

import "errors"

// Pipeline error kinds. Embedding and retrieval errors are fatal to a request.
// Extraction and fusion errors are absorbed where they occur and never reach callers.
var (
	// ErrEmbedding indicates an inference failure, shape mismatch or invalid vector.
	ErrEmbedding = errors.New("embedding failed")

	// ErrRetrieval indicates the retrieval backend failed.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrExtraction indicates the entity/expansion reply could not be used.
	ErrExtraction = errors.New("entity extraction failed")

	// ErrFusionParse indicates the generated response could not be parsed.
	ErrFusionParse = errors.New("response fusion failed")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a MovieDocument failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyAid indicates a document has no identifier.
	ErrEmptyAid = errors.New("aid cannot be empty")

	// ErrDimensionMismatch indicates a vector has the wrong number of components.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNonFinite indicates a vector holds NaN or Inf.
	ErrNonFinite = errors.New("vector contains non-finite values")
)

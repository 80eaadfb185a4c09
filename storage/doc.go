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

// Package storage defines the retrieval backend contract for marquee.
//
// An Index is a named collection of movie documents. Backends store each
// document keyed by aid together with the embedding of its descriptive text,
// and answer vector queries scored as cosine similarity plus 1.0, raised by
// boost-weighted field matches. Matches only add to the score; they never
// exclude a document.
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the storage.Index interface:
//
//	idx, err := badger.NewIndex(path, storage.DefaultIndexName) // returns storage.Index
//
// Internal constructors (newMovieIndex, etc.) may return concrete types since
// they're only used within the implementation package.
//
// # Backends
//
//   - storage/badger: embedded BadgerDB store with an exhaustive cosine scan
//   - storage/elastic: Elasticsearch with a script_score query over a dense_vector field
//
// Use in tests with in-memory storage:
//
//	idx, err := badger.NewMemoryIndex(storage.DefaultIndexName)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer idx.Close()
//
// # Thread Safety
//
// All Index implementations must be safe for concurrent use.
package storage

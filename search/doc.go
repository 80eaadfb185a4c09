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

// Package search provides the movie retrieval pipeline.
//
// The Searcher type runs a query through four stages:
//   - Entity extraction: titles, actors, directors, languages and expansion terms
//   - Query embedding: the expansion terms joined by spaces, or the raw query
//   - Vector search: cosine similarity plus boosts for matching entities
//   - Normalization: every hit becomes a core.CandidateRecord in index order
//
// Answer adds a fifth stage that fuses the candidates into a structured
// natural-language response. Extraction and fusion never fail a request.
// Embedding and index failures do, wrapped in core.ErrEmbedding and
// core.ErrRetrieval.
package search

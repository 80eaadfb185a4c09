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

// Package ai provides abstractions for the AI services used in Marquee.
//
// This package defines interfaces for text embedding, text generation, query
// analysis and response fusion. The search pipeline depends on these
// abstractions rather than on concrete model clients, so it can run against
// test doubles without model weights or network access.
//
// # Design Principles
//
// The package is designed around these interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces one text completion from a system and user prompt
//   - EntityExtractor: Finds entities and expansion terms in a query
//   - ResponseFuser: Turns a candidate list into a structured answer
//   - InferenceBackend: Runs a token-level embedding model
//   - AIProvider: Aggregates AI services for convenient initialization
//
// EntityExtractor and ResponseFuser never return errors. Their input comes from
// a generative model and any failure there is replaced by a safe default.
//
// # Implementation Packages
//
//   - ai/local: In-process embedding over an ONNX model and a vocabulary tokenizer
//   - ai/openai: OpenAI-compatible chat and embedding endpoints via langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockGenerator)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, EmbedTextFunc, Reset, etc.).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	extraction := provider.EntityExtractor().Extract(ctx, "吴京主演的科幻电影")
//	vector, err := provider.Embedder().EmbedText(ctx, extraction.VectorText("吴京主演的科幻电影"))
package ai

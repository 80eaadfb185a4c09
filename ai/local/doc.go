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

// Package local generates sentence embeddings in-process.
//
// Text is tokenized with a vocabulary tokenizer, run through an ONNX encoder,
// mean-pooled into one vector and optionally L2-normalized. Two presets match
// the models the catalog was indexed with:
//
//   - BGE: bge-small-zh-v1.5, 512 tokens, no normalization
//   - MiniLM: paraphrase-multilingual-MiniLM-L12-v2, 128 tokens, normalized
//
// Both produce 384-dimensional vectors. Pooling mode and normalization are
// fields of Variant and can be overridden per deployment.
//
// # Model lifecycle
//
// A Model is a process-wide handle on one ONNX file. Sessions are created
// lazily on first use and kept in a fixed-size pool; callers beyond the pool
// size wait, and give up when their context ends. Close waits for in-flight
// inference and then destroys every session.
//
// # Usage
//
//	emb, err := local.Open(local.Config{
//	    ModelPath:         "models/bge-small-zh-v1.5/model.onnx",
//	    VocabPath:         "models/bge-small-zh-v1.5/vocab.txt",
//	    SpecialTokensPath: "models/bge-small-zh-v1.5/special_tokens_map.json",
//	    Variant:           local.BGE(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	vec, err := emb.EmbedText(ctx, "流浪地球 科幻")
package local

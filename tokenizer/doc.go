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

// Package tokenizer turns text into the fixed-length token-id and attention-mask
// arrays an embedding model consumes.
//
// Splitting is whitespace only. Words are looked up whole in the vocabulary and
// anything missing becomes the unknown token; there is no sub-word splitting.
// A compound written without spaces is therefore a single lookup.
//
// # Usage
//
//	vocab, err := tokenizer.LoadVocabulary("models/bge/vocab.txt", "models/bge/special_tokens_map.json")
//	if err != nil {
//	    return err
//	}
//	tok, err := tokenizer.New(vocab, 512)
//	if err != nil {
//	    return err
//	}
//	input, err := tok.Tokenize("流浪地球 科幻")
//
// A Vocabulary and a Tokenizer are immutable after construction and safe for
// concurrent use.
package tokenizer

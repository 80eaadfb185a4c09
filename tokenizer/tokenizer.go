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

package tokenizer

import (
	"fmt"
	"strings"
)

// TokenizedInput is a fixed-length token-id sequence.
// len(IDs) always equals the tokenizer's max length.
type TokenizedInput struct {
	IDs []int64
	pad int64
}

// AttentionMask marks attended positions with 1 and padding with 0.
type AttentionMask []int64

// Tokenizer encodes text against a Vocabulary.
type Tokenizer struct {
	vocab     *Vocabulary
	maxLength int
}

// New creates a tokenizer producing sequences of exactly maxLength ids.
func New(vocab *Vocabulary, maxLength int) (*Tokenizer, error) {
	if vocab == nil {
		return nil, fmt.Errorf("%w: vocabulary not loaded", ErrTokenization)
	}
	if maxLength < 1 {
		return nil, fmt.Errorf("%w: max length must be positive, got %d", ErrTokenization, maxLength)
	}
	return &Tokenizer{vocab: vocab, maxLength: maxLength}, nil
}

// MaxLength returns the fixed sequence length.
func (t *Tokenizer) MaxLength() int {
	return t.maxLength
}

// Tokenize splits text on whitespace, wraps it in the begin and end tokens and
// maps each word to its id. Sequences longer than the max length are cut at the
// max length, which can drop the end token. Shorter ones are right-padded.
func (t *Tokenizer) Tokenize(text string) (*TokenizedInput, error) {
	if t == nil || t.vocab == nil {
		return nil, fmt.Errorf("%w: vocabulary not loaded", ErrTokenization)
	}
	special := t.vocab.special

	ids := make([]int64, 0, t.maxLength)
	ids = append(ids, special.Begin)
	for _, word := range strings.Fields(text) {
		if len(ids) >= t.maxLength {
			break
		}
		id, ok := t.vocab.ids[word]
		if !ok {
			id = special.Unknown
		}
		ids = append(ids, id)
	}
	if len(ids) < t.maxLength {
		ids = append(ids, special.End)
	}
	for len(ids) < t.maxLength {
		ids = append(ids, special.Pad)
	}

	return &TokenizedInput{IDs: ids, pad: special.Pad}, nil
}

// AttentionMask returns 0 wherever the id equals the pad id and 1 elsewhere.
func (in *TokenizedInput) AttentionMask() AttentionMask {
	mask := make(AttentionMask, len(in.IDs))
	for i, id := range in.IDs {
		if id != in.pad {
			mask[i] = 1
		}
	}
	return mask
}

// Attended returns the number of unmasked positions.
func (m AttentionMask) Attended() int {
	n := 0
	for _, v := range m {
		if v != 0 {
			n++
		}
	}
	return n
}

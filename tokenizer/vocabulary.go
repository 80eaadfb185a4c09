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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrTokenization indicates the vocabulary or its special tokens could not be
// loaded, or a tokenizer was used without them.
var ErrTokenization = errors.New("tokenization failed")

// Default special-token strings used when no special_tokens_map.json is given.
const (
	DefaultPadToken  = "[PAD]"
	DefaultUnkToken  = "[UNK]"
	DefaultClsToken  = "[CLS]"
	DefaultSepToken  = "[SEP]"
	DefaultMaskToken = "[MASK]"
)

// SpecialTokens holds the resolved ids of the control tokens.
type SpecialTokens struct {
	Pad     int64
	Unknown int64
	Begin   int64
	End     int64
	Mask    int64
}

// Vocabulary maps token strings to ids. Ids are line numbers in vocab.txt.
type Vocabulary struct {
	ids     map[string]int64
	special SpecialTokens
}

// specialTokenNames are the strings resolved into SpecialTokens.
type specialTokenNames struct {
	pad, unk, cls, sep, mask string
}

func defaultSpecialTokenNames() specialTokenNames {
	return specialTokenNames{
		pad:  DefaultPadToken,
		unk:  DefaultUnkToken,
		cls:  DefaultClsToken,
		sep:  DefaultSepToken,
		mask: DefaultMaskToken,
	}
}

// LoadVocabulary reads a one-token-per-line vocabulary file and resolves the
// special tokens named in specialTokensPath (a HuggingFace special_tokens_map.json).
// An empty specialTokensPath uses the BERT defaults. Loading fails if any
// special token is missing from the vocabulary.
func LoadVocabulary(vocabPath, specialTokensPath string) (*Vocabulary, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open vocabulary: %w", ErrTokenization, err)
	}
	defer f.Close()

	names := defaultSpecialTokenNames()
	if specialTokensPath != "" {
		data, err := os.ReadFile(specialTokensPath)
		if err != nil {
			return nil, fmt.Errorf("%w: read special tokens: %w", ErrTokenization, err)
		}
		names, err = parseSpecialTokenNames(data)
		if err != nil {
			return nil, err
		}
	}

	return readVocabulary(f, names)
}

// ReadVocabulary builds a vocabulary from r using the default special tokens.
func ReadVocabulary(r io.Reader) (*Vocabulary, error) {
	return readVocabulary(r, defaultSpecialTokenNames())
}

// NewVocabulary builds a vocabulary from an ordered token list using the
// default special tokens. Token i gets id i.
func NewVocabulary(tokens []string) (*Vocabulary, error) {
	return readVocabulary(strings.NewReader(strings.Join(tokens, "\n")), defaultSpecialTokenNames())
}

func readVocabulary(r io.Reader, names specialTokenNames) (*Vocabulary, error) {
	ids := make(map[string]int64)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var index int64
	for scanner.Scan() {
		// A repeated token keeps the id of its last line.
		ids[strings.TrimSpace(scanner.Text())] = index
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read vocabulary: %w", ErrTokenization, err)
	}

	v := &Vocabulary{ids: ids}
	resolve := func(name string) (int64, error) {
		id, ok := ids[name]
		if !ok {
			return 0, fmt.Errorf("%w: special token %q not in vocabulary", ErrTokenization, name)
		}
		return id, nil
	}

	var err error
	if v.special.Pad, err = resolve(names.pad); err != nil {
		return nil, err
	}
	if v.special.Unknown, err = resolve(names.unk); err != nil {
		return nil, err
	}
	if v.special.Begin, err = resolve(names.cls); err != nil {
		return nil, err
	}
	if v.special.End, err = resolve(names.sep); err != nil {
		return nil, err
	}
	if v.special.Mask, err = resolve(names.mask); err != nil {
		return nil, err
	}
	return v, nil
}

// parseSpecialTokenNames reads special_tokens_map.json. Each entry is either a
// plain string or an object carrying the token in "content".
func parseSpecialTokenNames(data []byte) (specialTokenNames, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return specialTokenNames{}, fmt.Errorf("%w: parse special tokens: %w", ErrTokenization, err)
	}

	get := func(key string) (string, error) {
		msg, ok := raw[key]
		if !ok {
			return "", fmt.Errorf("%w: special token %q not declared", ErrTokenization, key)
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			return s, nil
		}
		var obj struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(msg, &obj); err != nil || obj.Content == "" {
			return "", fmt.Errorf("%w: special token %q is malformed", ErrTokenization, key)
		}
		return obj.Content, nil
	}

	var names specialTokenNames
	var err error
	if names.pad, err = get("pad_token"); err != nil {
		return names, err
	}
	if names.unk, err = get("unk_token"); err != nil {
		return names, err
	}
	if names.cls, err = get("cls_token"); err != nil {
		return names, err
	}
	if names.sep, err = get("sep_token"); err != nil {
		return names, err
	}
	if names.mask, err = get("mask_token"); err != nil {
		return names, err
	}
	return names, nil
}

// ID returns the id of token and whether it is in the vocabulary.
func (v *Vocabulary) ID(token string) (int64, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Special returns the resolved control-token ids.
func (v *Vocabulary) Special() SpecialTokens {
	return v.special
}

// Size returns the number of distinct tokens.
func (v *Vocabulary) Size() int {
	return len(v.ids)
}

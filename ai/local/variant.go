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

package local

import "fmt"

// PoolingMode selects how per-token vectors are averaged.
type PoolingMode string

const (
	// PoolMean divides by the full sequence length, padding included.
	PoolMean PoolingMode = "mean"
	// PoolMaskedMean averages attended positions only.
	PoolMaskedMean PoolingMode = "masked_mean"
)

// ParsePoolingMode accepts "mean" or "masked_mean". Empty means PoolMean.
func ParsePoolingMode(s string) (PoolingMode, error) {
	switch PoolingMode(s) {
	case "", PoolMean:
		return PoolMean, nil
	case PoolMaskedMean:
		return PoolMaskedMean, nil
	default:
		return "", fmt.Errorf("unknown pooling mode %q", s)
	}
}

// DefaultDimension is the vector width of every bundled model.
const DefaultDimension = 384

// Variant describes one embedding model configuration.
type Variant struct {
	Name      string
	MaxLength int
	Dimension int
	Normalize bool
	Pooling   PoolingMode
}

// BGE is bge-small-zh-v1.5: 512 tokens, mean pooling over the padded
// sequence, no normalization.
func BGE() Variant {
	return Variant{
		Name:      "bge-small-zh-v1.5",
		MaxLength: 512,
		Dimension: DefaultDimension,
		Normalize: false,
		Pooling:   PoolMean,
	}
}

// MiniLM is paraphrase-multilingual-MiniLM-L12-v2: 128 tokens, mean pooling
// over the padded sequence, L2-normalized.
func MiniLM() Variant {
	return Variant{
		Name:      "paraphrase-multilingual-MiniLM-L12-v2",
		MaxLength: 128,
		Dimension: DefaultDimension,
		Normalize: true,
		Pooling:   PoolMean,
	}
}

// VariantByName returns the preset called "bge" or "minilm".
func VariantByName(name string) (Variant, error) {
	switch name {
	case "bge", "":
		return BGE(), nil
	case "minilm":
		return MiniLM(), nil
	default:
		return Variant{}, fmt.Errorf("unknown embedding variant %q", name)
	}
}

func (v Variant) validate() error {
	if v.MaxLength < 2 {
		return fmt.Errorf("variant %s: max length must be at least 2, got %d", v.Name, v.MaxLength)
	}
	if v.Dimension < 1 {
		return fmt.Errorf("variant %s: dimension must be positive, got %d", v.Name, v.Dimension)
	}
	if _, err := ParsePoolingMode(string(v.Pooling)); err != nil {
		return fmt.Errorf("variant %s: %w", v.Name, err)
	}
	return nil
}

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

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache holds recent embeddings keyed by a 64-bit BLAKE2b hash of the text.
type Cache struct {
	cache *lru.Cache[uint64, []float32]
}

// NewCache creates a cache of at most size entries. Returns nil if size < 1.
func NewCache(size int) *Cache {
	if size < 1 {
		return nil
	}
	cache, err := lru.New[uint64, []float32](size)
	if err != nil {
		return nil
	}
	return &Cache{cache: cache}
}

func textKey(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// Get returns a copy of the cached vector for text. Safe on a nil cache.
func (c *Cache) Get(text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.cache.Get(textKey(text))
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Add stores a copy of vec for text. Safe on a nil cache.
func (c *Cache) Add(text string, vec []float32) {
	if c == nil {
		return
	}
	stored := make([]float32, len(vec))
	copy(stored, vec)
	c.cache.Add(textKey(text), stored)
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}

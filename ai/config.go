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

package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Config addresses the OpenAI-compatible services: an optional remote
// embedding endpoint and the chat model behind extraction and fusion.
type Config struct {
	// EmbeddingHost is the base URL for a remote embedding service API.
	// Only used by the remote embedding strategy.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// GeneratorHost is the base URL for the chat completion API used for
	// query analysis and response fusion.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	GeneratorHost string

	// EmbeddingModel is the model identifier to use for remote text embeddings.
	// Example: "bge-m3", "text-embedding-3-small"
	EmbeddingModel string

	// GeneratorModel is the chat model identifier.
	// Example: "qwen2.5:7b", "deepseek-chat"
	GeneratorModel string

	// Token is the API key sent to both hosts. Local servers accept "none".
	Token string

	// Temperature is the sampling temperature for generation, 0 to 2.
	// Default: 0.1
	Temperature float64
}

// ConfigOption adjusts a Config built by NewConfig.
type ConfigOption func(*Config)

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

func WithGeneratorHost(host string) ConfigOption {
	return func(c *Config) {
		c.GeneratorHost = host
	}
}

// WithHost points both services at one server.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GeneratorHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

func WithGeneratorModel(model string) ConfigOption {
	return func(c *Config) {
		c.GeneratorModel = model
	}
}

func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		GeneratorHost:  defaultHost,
		EmbeddingModel: "bge-m3",
		GeneratorModel: "qwen2.5:7b",
		Token:          "none",
		Temperature:    0.1,
	}
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize appends /v1 to hosts and defaults an empty token to "none".
func (c *Config) Normalize() {
	c.EmbeddingHost = withV1(c.EmbeddingHost)
	c.GeneratorHost = withV1(c.GeneratorHost)
	if c.Token == "" {
		c.Token = "none"
	}
}

// withV1 makes an OpenAI-compatible base URL end with /v1.
func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("ai config")

// Validate normalizes c and reports the first missing or out-of-range field.
func (c *Config) Validate() error {
	c.Normalize()

	required := []struct{ name, value string }{
		{"EmbeddingHost", c.EmbeddingHost},
		{"GeneratorHost", c.GeneratorHost},
		{"EmbeddingModel", c.EmbeddingModel},
		{"GeneratorModel", c.GeneratorModel},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, f.name)
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: Temperature must be between 0 and 2, got %g", ErrInvalidConfig, c.Temperature)
	}
	return nil
}

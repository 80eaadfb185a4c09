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

// Package config loads marquee settings from a YAML file, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvLLMToken   = "MARQUEE_LLM_TOKEN"
	EnvESPassword = "MARQUEE_ES_PASSWORD"
	EnvESAPIKey   = "MARQUEE_ES_API_KEY"
)

// Index backends.
const (
	BackendBadger        = "badger"
	BackendElasticsearch = "elasticsearch"
)

// Embedding strategies.
const (
	StrategyBGE    = "bge"
	StrategyMiniLM = "minilm"
	StrategyRemote = "remote"
)

// IndexConfig selects and configures the retrieval backend.
type IndexConfig struct {
	Backend   string   `yaml:"backend"`
	Path      string   `yaml:"path"`
	Name      string   `yaml:"name"`
	Addresses []string `yaml:"addresses,omitempty"`
	Username  string   `yaml:"username,omitempty"`
	Password  string   `yaml:"password,omitempty"`
	APIKey    string   `yaml:"api_key,omitempty"`
	Dimension int      `yaml:"dimension"`
	Size      int      `yaml:"size"`
	Refresh   bool     `yaml:"refresh"`
}

// EmbeddingConfig selects how text is turned into vectors.
type EmbeddingConfig struct {
	Strategy          string `yaml:"strategy"`
	ModelPath         string `yaml:"model_path"`
	VocabPath         string `yaml:"vocab_path"`
	SpecialTokensPath string `yaml:"special_tokens_path"`
	LibraryPath       string `yaml:"library_path,omitempty"`
	Sessions          int    `yaml:"sessions"`
	IntraOpThreads    int    `yaml:"intra_op_threads"`
	Pooling           string `yaml:"pooling,omitempty"`
	Normalize         *bool  `yaml:"normalize,omitempty"`
	MaxLength         int    `yaml:"max_length,omitempty"`
	CacheSize         int    `yaml:"cache_size"`
	RemoteHost        string `yaml:"remote_host,omitempty"`
	RemoteModel       string `yaml:"remote_model,omitempty"`
}

// LLMConfig points at the OpenAI-compatible chat endpoint.
type LLMConfig struct {
	Host        string  `yaml:"host"`
	Model       string  `yaml:"model"`
	Token       string  `yaml:"token,omitempty"`
	Temperature float64 `yaml:"temperature"`
}

// TimeoutsConfig bounds each backend call. Zero disables a bound.
type TimeoutsConfig struct {
	Extraction time.Duration `yaml:"extraction"`
	Embedding  time.Duration `yaml:"embedding"`
	Retrieval  time.Duration `yaml:"retrieval"`
	Fusion     time.Duration `yaml:"fusion"`
}

// PromptsConfig overrides the built-in prompt templates.
type PromptsConfig struct {
	EntityExpansion    string `yaml:"entity_expansion,omitempty"`
	ResponseGeneration string `yaml:"response_generation,omitempty"`
}

// IngestionConfig tunes bulk loads.
type IngestionConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	PoolSize       int           `yaml:"pool_size"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	CheckpointPath string        `yaml:"checkpoint_path"`
}

// Config is the root configuration.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Prompts   PromptsConfig   `yaml:"prompts,omitempty"`
	Ingestion IngestionConfig `yaml:"ingestion"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Backend:   BackendBadger,
			Path:      "marquee.db",
			Name:      "new_movies_index",
			Addresses: []string{"http://localhost:9200"},
			Dimension: 384,
			Size:      10,
		},
		Embedding: EmbeddingConfig{
			Strategy:          StrategyBGE,
			ModelPath:         "models/bge-small-zh-v1.5/model.onnx",
			VocabPath:         "models/bge-small-zh-v1.5/vocab.txt",
			SpecialTokensPath: "models/bge-small-zh-v1.5/special_tokens_map.json",
			Sessions:          2,
			IntraOpThreads:    1,
			CacheSize:         1024,
			RemoteHost:        "http://localhost:11434/v1",
			RemoteModel:       "bge-m3",
		},
		LLM: LLMConfig{
			Host:        "http://localhost:11434/v1",
			Model:       "qwen2.5:7b",
			Temperature: 0.1,
		},
		Timeouts: TimeoutsConfig{
			Extraction: 30 * time.Second,
			Embedding:  10 * time.Second,
			Retrieval:  10 * time.Second,
			Fusion:     60 * time.Second,
		},
		Ingestion: IngestionConfig{
			BatchSize:      100,
			MaxAttempts:    3,
			RetryBaseDelay: 500 * time.Millisecond,
			CheckpointPath: "marquee-checkpoints.db",
		},
	}
}

// Load reads a config from path on top of the defaults. A missing file, or
// an empty path, yields the defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads .env files into the process environment without replacing
// variables that are already set. Missing files are ignored. With no
// arguments it reads ./.env.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Save writes cfg to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLLMToken); v != "" {
		c.LLM.Token = v
	}
	if v := os.Getenv(EnvESPassword); v != "" {
		c.Index.Password = v
	}
	if v := os.Getenv(EnvESAPIKey); v != "" {
		c.Index.APIKey = v
	}
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case BackendBadger:
		if c.Index.Path == "" {
			return errors.New("config: index.path is required for the badger backend")
		}
	case BackendElasticsearch:
		if len(c.Index.Addresses) == 0 {
			return errors.New("config: index.addresses is required for the elasticsearch backend")
		}
	default:
		return fmt.Errorf("config: unknown index backend %q", c.Index.Backend)
	}
	if c.Index.Dimension < 1 {
		return fmt.Errorf("config: index.dimension must be positive, got %d", c.Index.Dimension)
	}
	if c.Index.Size < 1 {
		return fmt.Errorf("config: index.size must be positive, got %d", c.Index.Size)
	}

	switch c.Embedding.Strategy {
	case StrategyBGE, StrategyMiniLM:
		if c.Embedding.ModelPath == "" || c.Embedding.VocabPath == "" {
			return fmt.Errorf("config: embedding strategy %s needs model_path and vocab_path", c.Embedding.Strategy)
		}
	case StrategyRemote:
		if c.Embedding.RemoteHost == "" || c.Embedding.RemoteModel == "" {
			return errors.New("config: remote embedding needs remote_host and remote_model")
		}
	default:
		return fmt.Errorf("config: unknown embedding strategy %q", c.Embedding.Strategy)
	}

	if c.Timeouts.Extraction < 0 || c.Timeouts.Embedding < 0 || c.Timeouts.Retrieval < 0 || c.Timeouts.Fusion < 0 {
		return errors.New("config: timeouts cannot be negative")
	}
	return nil
}

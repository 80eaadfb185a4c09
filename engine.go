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

package marquee

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/ai/local"
	"github.com/poiesic/marquee/ai/openai"
	"github.com/poiesic/marquee/config"
	"github.com/poiesic/marquee/ingestion"
	"github.com/poiesic/marquee/search"
	"github.com/poiesic/marquee/storage"
	"github.com/poiesic/marquee/storage/badger"
	"github.com/poiesic/marquee/storage/elastic"
)

// ErrDimensionConflict is returned when the index and the embedder disagree on vector width.
var ErrDimensionConflict = errors.New("index and embedder dimensions differ")

// Engine owns the index, the checkpoint store and the AI provider described
// by a config.Config, and builds searchers and indexers over them.
type Engine struct {
	config      *config.Config
	index       storage.Index
	checkpoints storage.CheckpointStore
	backend     *badger.Backend
	provider    ai.AIProvider
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the config.
// The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the configured index backend and AI provider.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{
		config: cfg,
		logger: options.logger.With("component", "engine"),
	}

	if err := e.openIndex(); err != nil {
		e.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = newProvider(cfg)
		if err != nil {
			e.Close()
			return nil, err
		}
	}
	e.provider = provider

	e.logger.Info("engine ready",
		"backend", cfg.Index.Backend,
		"index", e.index.Name(),
		"embedding", cfg.Embedding.Strategy)
	return e, nil
}

// openIndex opens the index and a checkpoint store. The badger backend keeps
// both in one database. Elasticsearch gets a separate local checkpoint database.
func (e *Engine) openIndex() error {
	ic := e.config.Index
	switch ic.Backend {
	case config.BackendBadger:
		backend, err := badger.OpenBackend(ic.Path, false)
		if err != nil {
			return err
		}
		e.backend = backend
		idx, err := badger.NewIndexOnBackend(backend, ic.Name, badger.WithDimension(ic.Dimension))
		if err != nil {
			return err
		}
		e.index = idx

	case config.BackendElasticsearch:
		idx, err := elastic.NewIndex(elastic.Config{
			Addresses: ic.Addresses,
			Username:  ic.Username,
			Password:  ic.Password,
			APIKey:    ic.APIKey,
			Index:     ic.Name,
			Dimension: ic.Dimension,
			Refresh:   ic.Refresh,
		})
		if err != nil {
			return err
		}
		e.index = idx
		backend, err := badger.OpenBackend(e.config.Ingestion.CheckpointPath, false)
		if err != nil {
			return err
		}
		e.backend = backend

	default:
		return fmt.Errorf("unknown index backend %q", ic.Backend)
	}

	e.checkpoints = badger.NewCheckpointRepository(e.backend)
	return nil
}

// newProvider builds the OpenAI-compatible provider with the configured embedder.
func newProvider(cfg *config.Config) (ai.AIProvider, error) {
	aiConfig := ai.NewConfig(
		ai.WithGeneratorHost(cfg.LLM.Host),
		ai.WithGeneratorModel(cfg.LLM.Model),
		ai.WithTemperature(cfg.LLM.Temperature),
		ai.WithEmbeddingHost(cfg.Embedding.RemoteHost),
		ai.WithEmbeddingModel(cfg.Embedding.RemoteModel),
	)
	if cfg.LLM.Token != "" {
		aiConfig.Token = cfg.LLM.Token
	}

	opts := []openai.ProviderOption{
		openai.WithPrompts(openai.Prompts{
			EntityExpansion:    cfg.Prompts.EntityExpansion,
			ResponseGeneration: cfg.Prompts.ResponseGeneration,
		}),
		openai.WithDimension(cfg.Index.Dimension),
	}

	if cfg.Embedding.Strategy == config.StrategyRemote {
		return openai.NewProvider(aiConfig, opts...)
	}

	embedder, err := openLocalEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := openai.NewProvider(aiConfig, append(opts, openai.WithEmbedder(embedder))...)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}
	return provider, nil
}

// LocalVariant resolves the embedding variant for cfg, applying the pooling,
// normalization and sequence length overrides.
func LocalVariant(cfg config.EmbeddingConfig, dimension int) (local.Variant, error) {
	variant, err := local.VariantByName(cfg.Strategy)
	if err != nil {
		return local.Variant{}, err
	}
	if cfg.Pooling != "" {
		mode, err := local.ParsePoolingMode(cfg.Pooling)
		if err != nil {
			return local.Variant{}, err
		}
		variant.Pooling = mode
	}
	if cfg.Normalize != nil {
		variant.Normalize = *cfg.Normalize
	}
	if cfg.MaxLength > 0 {
		variant.MaxLength = cfg.MaxLength
	}
	if dimension != variant.Dimension {
		return local.Variant{}, fmt.Errorf("%w: index dimension %d, %s produces %d",
			ErrDimensionConflict, dimension, variant.Name, variant.Dimension)
	}
	return variant, nil
}

func openLocalEmbedder(cfg *config.Config) (*local.Embedder, error) {
	variant, err := LocalVariant(cfg.Embedding, cfg.Index.Dimension)
	if err != nil {
		return nil, err
	}
	return local.Open(local.Config{
		ModelPath:         cfg.Embedding.ModelPath,
		VocabPath:         cfg.Embedding.VocabPath,
		SpecialTokensPath: cfg.Embedding.SpecialTokensPath,
		LibraryPath:       cfg.Embedding.LibraryPath,
		Variant:           variant,
		Sessions:          cfg.Embedding.Sessions,
		IntraOpThreads:    cfg.Embedding.IntraOpThreads,
		CacheSize:         cfg.Embedding.CacheSize,
	})
}

// Close releases the provider, the index and the local database.
func (e *Engine) Close() error {
	var errs []error

	// Close AI provider first
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}

	if e.index != nil {
		if err := e.index.Close(); err != nil {
			e.logger.Error("error closing index", "err", err)
			errs = append(errs, err)
		}
	}

	// Close backend
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *config.Config {
	return e.config
}

// Index returns the retrieval index.
func (e *Engine) Index() storage.Index {
	return e.index
}

// Provider returns the AI provider.
func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

// CheckpointStore returns the store that records bulk load progress.
func (e *Engine) CheckpointStore() storage.CheckpointStore {
	return e.checkpoints
}

// NewSearcher creates a searcher with the configured result size and timeouts.
// opts are applied after the configured ones.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	t := e.config.Timeouts
	base := []search.Option{
		search.WithLimit(e.config.Index.Size),
		search.WithTimeouts(search.Timeouts{
			Extraction: t.Extraction,
			Embedding:  t.Embedding,
			Retrieval:  t.Retrieval,
			Fusion:     t.Fusion,
		}),
	}
	return search.NewSearcher(e.index, e.provider, append(base, opts...)...)
}

// NewIndexer creates an indexer with the configured batching, retry and
// checkpointing. opts are applied after the configured ones.
func (e *Engine) NewIndexer(opts ...ingestion.Option) (*ingestion.Indexer, error) {
	ic := e.config.Ingestion
	base := []ingestion.Option{ingestion.WithCheckpoints(e.checkpoints)}
	if ic.BatchSize > 0 {
		base = append(base, ingestion.WithBatchSize(ic.BatchSize))
	}
	if ic.PoolSize > 0 {
		base = append(base, ingestion.WithPoolSize(ic.PoolSize))
	}
	if ic.MaxAttempts > 0 {
		base = append(base, ingestion.WithRetry(ic.MaxAttempts, ic.RetryBaseDelay))
	}
	return ingestion.NewIndexer(e.index, e.provider, append(base, opts...)...)
}

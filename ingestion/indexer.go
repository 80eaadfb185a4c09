package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/storage"
)

// Defaults for an Indexer.
const (
	DefaultBatchSize      = 100
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
)

// Stats summarizes one Index run.
type Stats struct {
	Total         int // Records in the source
	Resumed       int // Records skipped because a checkpoint covered them
	Indexed       int // Records upserted by this run
	WithoutVector int // Indexed records that had no text to embed
	Elapsed       time.Duration
}

// Indexer embeds catalog records and upserts them into an index.
type Indexer struct {
	index       storage.Index
	embedder    ai.Embedder
	pool        *ants.Pool
	batchSize   int
	retry       Backoff
	checkpoints storage.CheckpointStore
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithPoolSize sets the number of documents embedded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if ix.pool != nil {
			ix.pool.Release()
		}
		ix.pool = pool
		return nil
	}
}

// WithBatchSize sets how many documents go into one upsert.
// Default is DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(ix *Indexer) error {
		if n < 1 {
			return fmt.Errorf("batch size must be positive, got %d", n)
		}
		ix.batchSize = n
		return nil
	}
}

// WithRetry sets the attempts and base backoff delay for embedding and upserts.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(ix *Indexer) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		ix.retry = Backoff{Attempts: maxAttempts, BaseDelay: baseDelay}
		return nil
	}
}

// WithCheckpoints enables resumable loads backed by store.
func WithCheckpoints(store storage.CheckpointStore) Option {
	return func(ix *Indexer) error {
		ix.checkpoints = store
		return nil
	}
}

// WithProgress writes a progress line to w while indexing.
func WithProgress(w io.Writer) Option {
	return func(ix *Indexer) error {
		ix.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndexer creates an indexer that embeds with the provider's embedder.
// Call Release when done.
func NewIndexer(index storage.Index, provider ai.AIProvider, opts ...Option) (*Indexer, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	ix := &Indexer{
		index:     index,
		embedder:  provider.Embedder(),
		pool:      pool,
		batchSize: DefaultBatchSize,
		retry:     Backoff{Attempts: DefaultMaxAttempts, BaseDelay: DefaultRetryBaseDelay},
		logger:    slog.Default().With("component", "indexer"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(ix); optErr != nil {
			ix.Release()
			return nil, optErr
		}
	}

	return ix, nil
}

// SourceKey returns the checkpoint key for a catalog file: its absolute path.
func SourceKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// IndexFile loads path and indexes its records, checkpointing under SourceKey(path).
func (ix *Indexer) IndexFile(ctx context.Context, path string) (Stats, error) {
	records, err := LoadFile(path)
	if err != nil {
		return Stats{}, err
	}
	return ix.Index(ctx, SourceKey(path), records)
}

// Index embeds and upserts records in batches. With checkpoints enabled it
// skips the records a previous run of the same source already indexed, and
// clears the checkpoint once every record is in.
func (ix *Indexer) Index(ctx context.Context, source string, records []core.CandidateRecord) (Stats, error) {
	start := time.Now()
	stats := Stats{Total: len(records)}
	logger := ix.logger.With("source", source, "index", ix.index.Name())

	offset, err := ix.resumeOffset(ctx, source, len(records))
	if err != nil {
		return stats, err
	}
	stats.Resumed = offset
	if offset > 0 {
		logger.Info("resuming from checkpoint", "offset", offset)
	}

	var tracker *ProgressTracker
	if ix.progress != nil {
		tracker = NewProgressTracker(ix.progress, len(records), ix.batchSize)
		tracker.Start(offset)
		defer tracker.Finish()
	}

	for begin := offset; begin < len(records); begin += ix.batchSize {
		if err := ctx.Err(); err != nil {
			return ix.finish(stats, start), err
		}
		end := min(begin+ix.batchSize, len(records))

		docs, err := ix.embedBatch(ctx, records[begin:end])
		if err != nil {
			logger.Error("error embedding batch", "begin", begin, "end", end, "err", err)
			return ix.finish(stats, start), err
		}

		err = ix.retry.Do(ctx, logger, func(ctx context.Context) error {
			return ix.index.UpsertDocuments(ctx, docs...)
		})
		if err != nil {
			logger.Error("error upserting batch", "begin", begin, "end", end, "err", err)
			return ix.finish(stats, start), fmt.Errorf("upsert documents %d-%d: %w", begin, end, err)
		}

		for _, doc := range docs {
			if len(doc.Vector) == 0 {
				stats.WithoutVector++
			}
		}
		stats.Indexed += len(docs)

		if ix.checkpoints != nil {
			if err := ix.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Source: source, Offset: end}); err != nil {
				return ix.finish(stats, start), fmt.Errorf("save checkpoint: %w", err)
			}
		}
		if tracker != nil {
			tracker.Increment(len(docs))
		}
		logger.Debug("indexed batch", "begin", begin, "end", end)
	}

	if ix.checkpoints != nil {
		if err := ix.checkpoints.ClearCheckpoint(ctx, source); err != nil {
			return ix.finish(stats, start), fmt.Errorf("clear checkpoint: %w", err)
		}
	}

	stats = ix.finish(stats, start)
	logger.Info("indexing complete",
		"total", stats.Total,
		"indexed", stats.Indexed,
		"resumed", stats.Resumed,
		"withoutVector", stats.WithoutVector,
		"elapsed", stats.Elapsed)
	return stats, nil
}

// Release releases the worker pool.
// The indexer should not be used after calling Release.
func (ix *Indexer) Release() {
	if ix.pool != nil {
		ix.pool.Release()
	}
}

func (ix *Indexer) finish(stats Stats, start time.Time) Stats {
	stats.Elapsed = time.Since(start)
	return stats
}

func (ix *Indexer) resumeOffset(ctx context.Context, source string, total int) (int, error) {
	if ix.checkpoints == nil {
		return 0, nil
	}
	checkpoint, err := ix.checkpoints.LoadCheckpoint(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return 0, nil
	}
	return min(max(checkpoint.Offset, 0), total), nil
}

// embedBatch embeds every record's document text on the pool. Records with
// no text get no vector. The first failure cancels the rest of the batch.
func (ix *Indexer) embedBatch(ctx context.Context, records []core.CandidateRecord) ([]*core.MovieDocument, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	docs := make([]*core.MovieDocument, len(records))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := range records {
		docs[i] = &core.MovieDocument{Record: records[i]}
		text := records[i].DocumentText()
		if text == "" {
			continue
		}

		wg.Add(1)
		doc := docs[i]
		err := ix.pool.Submit(func() {
			defer wg.Done()
			err := ix.retry.Do(ctx, ix.logger, func(ctx context.Context) error {
				vector, err := ix.embedder.EmbedText(ctx, text)
				if err != nil {
					return err
				}
				doc.Vector = vector
				return nil
			})
			if err != nil {
				if !errors.Is(err, core.ErrEmbedding) {
					err = fmt.Errorf("%w: %w", core.ErrEmbedding, err)
				}
				fail(fmt.Errorf("aid %s: %w", doc.Record.Aid, err))
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return docs, nil
}

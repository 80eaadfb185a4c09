package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/storage"
)

// Text fields are matched as case-insensitive substrings. Every other field is
// matched by exact value, element-wise for lists.
var textFields = map[string]bool{
	core.FieldTitle:   true,
	core.FieldBrief:   true,
	core.FieldContent: true,
}

// MovieIndex implements storage.Index on BadgerDB. Vector search is an
// exhaustive scan, which suits catalogs that fit comfortably on one machine.
type MovieIndex struct {
	backend   *Backend
	ownsDB    bool
	name      string
	dimension int
	logger    *slog.Logger
}

var _ storage.Index = (*MovieIndex)(nil)

// IndexOption configures a MovieIndex.
type IndexOption func(*MovieIndex)

// WithDimension rejects upserted vectors whose width is not dim.
func WithDimension(dim int) IndexOption {
	return func(idx *MovieIndex) {
		idx.dimension = dim
	}
}

// WithLogger sets the index logger.
func WithLogger(logger *slog.Logger) IndexOption {
	return func(idx *MovieIndex) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// newMovieIndex is an internal constructor that returns the concrete type.
func newMovieIndex(backend *Backend, name string, ownsDB bool, opts ...IndexOption) (*MovieIndex, error) {
	if name == "" || strings.ContainsRune(name, ':') {
		return nil, fmt.Errorf("%w: index name %q", storage.ErrInvalidQuery, name)
	}
	idx := &MovieIndex{
		backend: backend,
		ownsDB:  ownsDB,
		name:    name,
		logger:  slog.Default().With("component", "badger-index", "index", name),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// NewIndex opens (creating if needed) a BadgerDB database at path and returns
// the named index inside it. Closing the index closes the database.
//
// Returns storage.Index interface to enforce abstraction.
func NewIndex(path, name string, opts ...IndexOption) (storage.Index, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	idx, err := newMovieIndex(backend, name, true, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return idx, nil
}

// NewIndexOnBackend returns the named index inside an already open database.
// Closing the index leaves the database open.
func NewIndexOnBackend(backend *Backend, name string, opts ...IndexOption) (*MovieIndex, error) {
	return newMovieIndex(backend, name, false, opts...)
}

// Name returns the collection name.
func (idx *MovieIndex) Name() string {
	return idx.name
}

// CreateIndex provisions the index, dropping an existing one first when recreate is set.
func (idx *MovieIndex) CreateIndex(ctx context.Context, recreate bool) error {
	exists, err := idx.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if !recreate {
			return fmt.Errorf("%w: %s", storage.ErrIndexExists, idx.name)
		}
		if err := idx.drop(); err != nil {
			return err
		}
		idx.logger.Info("deleted existing index")
	}

	err = idx.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeIndexMetaKey(idx.name), []byte{}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	idx.logger.Info("created index")
	return nil
}

// DeleteIndex drops the index marker and every document.
func (idx *MovieIndex) DeleteIndex(ctx context.Context) error {
	exists, err := idx.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}
	if err := idx.drop(); err != nil {
		return err
	}
	idx.logger.Info("deleted index")
	return nil
}

func (idx *MovieIndex) drop() error {
	return idx.backend.DropPrefix(makeIndexMetaKey(idx.name), makeMoviePrefix(idx.name))
}

// Exists reports whether CreateIndex has been called for this index.
func (idx *MovieIndex) Exists(ctx context.Context) (bool, error) {
	if idx.backend.IsClosed() {
		return false, storage.ErrStorageClosed
	}
	exists := false
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeIndexMetaKey(idx.name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// UpsertDocuments validates and writes documents keyed by aid.
func (idx *MovieIndex) UpsertDocuments(ctx context.Context, docs ...*core.MovieDocument) error {
	if len(docs) == 0 {
		return nil
	}
	exists, err := idx.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}

	keys := make([][]byte, 0, len(docs))
	values := make([][]byte, 0, len(docs))
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return err
		}
		if idx.dimension > 0 && len(doc.Vector) > 0 {
			if err := core.ValidateVector(doc.Vector, idx.dimension); err != nil {
				return fmt.Errorf("%w: aid %s: %w", core.ErrInvalidDocument, doc.Record.Aid, err)
			}
		}
		keys = append(keys, makeMovieKey(idx.name, doc.Record.Aid))
		values = append(values, storage.MarshalDocument(doc))
	}

	if err := idx.backend.WriteBatch(ctx, keys, values); err != nil {
		return err
	}
	idx.logger.Debug("upserted documents", "count", len(docs))
	return nil
}

// Count returns the number of stored documents.
func (idx *MovieIndex) Count(ctx context.Context) (int, error) {
	exists, err := idx.Exists(ctx)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}
	count := 0
	err = idx.backend.Scan(ctx, makeMoviePrefix(idx.name), true, func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}

// VectorSearch scores every document that has a vector and returns the top
// q.Size hits. Equal scores keep key (aid) order.
func (idx *MovieIndex) VectorSearch(ctx context.Context, q core.VectorQuery) ([]core.Hit, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	exists, err := idx.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}

	size := q.Size
	if size <= 0 {
		size = storage.DefaultSearchSize
	}

	var hits []core.Hit
	err = idx.backend.Scan(ctx, makeMoviePrefix(idx.name), false, func(_, val []byte) error {
		doc, err := storage.UnmarshalDocument(val)
		if err != nil {
			return err
		}
		// Documents stored without text have no vector and never match.
		if len(doc.Vector) == 0 {
			return nil
		}
		if len(doc.Vector) != len(q.Vector) {
			return fmt.Errorf("%w: query has %d components, document %s has %d",
				core.ErrDimensionMismatch, len(q.Vector), doc.Record.Aid, len(doc.Vector))
		}

		source := doc.Record.Source()
		score := cosine(q.Vector, doc.Vector) + 1.0
		for _, f := range q.Filters {
			if matches(source, f) {
				score += f.Boost
			}
		}
		hits = append(hits, core.Hit{
			ID:     doc.Record.Aid,
			Score:  score,
			Source: source,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b core.Hit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(hits) > size {
		hits = hits[:size]
	}

	idx.logger.Debug("vector search", "filters", len(q.Filters), "hits", len(hits))
	return hits, nil
}

// Close releases the database if this index opened it.
func (idx *MovieIndex) Close() error {
	if !idx.ownsDB {
		return nil
	}
	return idx.backend.Close()
}

// cosine returns the cosine similarity of a and b, or 0 when either has zero norm.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// matches reports whether a stored document satisfies one match clause.
func matches(source map[string]any, f core.FieldFilter) bool {
	value := strings.TrimSpace(f.Value)
	if value == "" {
		return false
	}
	stored := core.AsStrings(source[f.Field])
	if textFields[f.Field] {
		needle := strings.ToLower(value)
		for _, s := range stored {
			if strings.Contains(strings.ToLower(s), needle) {
				return true
			}
		}
		return false
	}
	return slices.Contains(stored, value)
}

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Backend owns the badger.DB shared by movie indexes and checkpoint stores.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogSink routes badger's printf-style logging into slog.
type slogSink struct {
	logger *slog.Logger
}

var _ badger.Logger = slogSink{}

func (s slogSink) Errorf(format string, args ...any) {
	s.logger.Error(fmt.Sprintf(format, args...))
}

func (s slogSink) Warningf(format string, args ...any) {
	s.logger.Warn(fmt.Sprintf(format, args...))
}

func (s slogSink) Infof(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

func (s slogSink) Debugf(format string, args ...any) {
	s.logger.Debug(fmt.Sprintf(format, args...))
}

// ensureDir creates dir if needed and rejects paths that name a file.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// OpenBackend opens the database directory at path, creating it when
// missing. With inMemory set, path is ignored and nothing touches disk.
func OpenBackend(path string, inMemory bool) (*Backend, error) {
	logger := slog.Default().With("component", "badger")

	opts := badger.DefaultOptions("").WithInMemory(true)
	if !inMemory {
		if err := ensureDir(path); err != nil {
			return nil, fmt.Errorf("open badger at %q: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(slogSink{logger: logger}).WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Backend{db: db, logger: logger}, nil
}

// Close closes the database. Indexes and stores sharing it stop working.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn in a transaction that is always discarded afterwards. Write
// transactions must call Commit inside fn for their changes to stick.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

var errBatchShape = errors.New("keys and values differ in length")

// WriteBatch writes keys[i]=values[i] for every i. Batched writes are not
// limited by the transaction size cap, so a whole bulk load page fits.
func (b *Backend) WriteBatch(ctx context.Context, keys, values [][]byte) error {
	if len(keys) != len(values) {
		return fmt.Errorf("%w: %d keys, %d values", errBatchShape, len(keys), len(values))
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := wb.Set(key, values[i]); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// DropPrefix deletes all keys under any of prefixes.
func (b *Backend) DropPrefix(prefixes ...[]byte) error {
	return b.db.DropPrefix(prefixes...)
}

// Scan visits keys under prefix in order. Values are only read when keysOnly
// is false; otherwise fn receives a nil value.
func (b *Backend) Scan(ctx context.Context, prefix []byte, keysOnly bool, fn func(key, value []byte) error) error {
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = prefix
	iterOpts.PrefetchValues = !keysOnly

	visit := func(item *badger.Item) error {
		if keysOnly {
			return fn(item.Key(), nil)
		}
		return item.Value(func(val []byte) error {
			return fn(item.Key(), val)
		})
	}

	return b.WithTx(func(tx *badger.Txn) error {
		it := tx.NewIterator(iterOpts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := visit(it.Item()); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

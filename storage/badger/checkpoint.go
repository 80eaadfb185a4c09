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

package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/storage"
)

// CheckpointRepository keeps bulk load offsets in a Backend, one key per
// source file.
type CheckpointRepository struct {
	backend *Backend
}

var _ storage.CheckpointStore = (*CheckpointRepository)(nil)

// NewCheckpointRepository stores checkpoints in backend. The backend may be
// shared with a MovieIndex.
func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{backend: backend}
}

func (r *CheckpointRepository) usable(ctx context.Context, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if source == "" {
		return fmt.Errorf("%w: empty checkpoint source", storage.ErrInvalidQuery)
	}
	return nil
}

// SaveCheckpoint stamps UpdatedAt and overwrites any earlier checkpoint for
// the same source.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if checkpoint == nil {
		return fmt.Errorf("%w: nil checkpoint", storage.ErrInvalidQuery)
	}
	if err := r.usable(ctx, checkpoint.Source); err != nil {
		return err
	}
	checkpoint.UpdatedAt = time.Now().UTC()
	encoded := storage.MarshalCheckpoint(checkpoint)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeCheckpointKey(checkpoint.Source), encoded); err != nil {
			return fmt.Errorf("save checkpoint %s: %w", checkpoint.Source, err)
		}
		return tx.Commit()
	}, true)
}

// LoadCheckpoint returns nil, nil when source has never been checkpointed.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, source string) (*core.Checkpoint, error) {
	if err := r.usable(ctx, source); err != nil {
		return nil, err
	}

	var found *core.Checkpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCheckpointKey(source))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		case err != nil:
			return err
		}
		return item.Value(func(val []byte) (decodeErr error) {
			found, decodeErr = storage.UnmarshalCheckpoint(val)
			return decodeErr
		})
	}, false)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", source, err)
	}
	return found, nil
}

// ClearCheckpoint deletes the checkpoint for source. Deleting a key that was
// never written succeeds.
func (r *CheckpointRepository) ClearCheckpoint(ctx context.Context, source string) error {
	if err := r.usable(ctx, source); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCheckpointKey(source)); err != nil {
			return fmt.Errorf("clear checkpoint %s: %w", source, err)
		}
		return tx.Commit()
	}, true)
}

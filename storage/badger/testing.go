package badger

import "github.com/poiesic/marquee/storage"

// NewMemoryIndex creates an in-memory index for testing. The index owns its
// database, so Close releases everything. Call CreateIndex before use.
func NewMemoryIndex(name string, opts ...IndexOption) (*MovieIndex, error) {
	backend, err := OpenBackend("", true)
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

// NewMemoryCheckpointStore creates an in-memory checkpoint store for testing.
// Caller must close the returned backend when done.
func NewMemoryCheckpointStore() (storage.CheckpointStore, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}
	return NewCheckpointRepository(backend), backend, nil
}

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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/poiesic/marquee/ai"
)

var (
	// ErrModelClosed indicates inference was requested after Close.
	ErrModelClosed = errors.New("model is closed")

	// ErrModelInit indicates the model could not be loaded.
	ErrModelInit = errors.New("model initialization failed")

	// ErrModelInputs indicates the model lacks an input the encoder feeds.
	ErrModelInputs = errors.New("model input missing")
)

// session runs one inference at a time.
type session interface {
	run(ids, mask []int64) (ai.Tensor, error)
	destroy() error
}

// sessionFactory creates sessions. It is called size times on first use.
type sessionFactory func() (session, error)

// Model is a lazily initialized, fixed-size pool of inference sessions over one
// model file. It implements ai.InferenceBackend and is safe for concurrent use.
type Model struct {
	name    string
	size    int
	factory sessionFactory
	logger  *slog.Logger

	once    sync.Once
	initErr error

	sem    *semaphore.Weighted
	mu     sync.Mutex
	idle   []session
	all    []session
	closed atomic.Bool
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithSessions sets how many inferences may run at once. Default: 1.
func WithSessions(n int) ModelOption {
	return func(m *Model) {
		if n > 0 {
			m.size = n
		}
	}
}

// WithModelLogger sets the logger.
func WithModelLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) {
		m.logger = logger
	}
}

func newModel(name string, factory sessionFactory, opts ...ModelOption) *Model {
	m := &Model{
		name:    name,
		size:    1,
		factory: factory,
		logger:  slog.Default().With("component", "local-model"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sem = semaphore.NewWeighted(int64(m.size))
	return m
}

// NewONNXModel returns a handle on an ONNX encoder. Nothing is loaded until the
// first Infer call.
func NewONNXModel(cfg ONNXConfig, opts ...ModelOption) *Model {
	return newModel(cfg.ModelPath, onnxSessionFactory(cfg), opts...)
}

func (m *Model) init() error {
	m.once.Do(func() {
		// Close takes mu before destroying sessions, so it either sees these
		// sessions or stops them from being created.
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed.Load() {
			m.initErr = ErrModelClosed
			return
		}
		m.logger.Info("loading model", "model", m.name, "sessions", m.size)
		sessions := make([]session, 0, m.size)
		for i := 0; i < m.size; i++ {
			s, err := m.factory()
			if err != nil {
				for _, created := range sessions {
					_ = created.destroy()
				}
				m.initErr = fmt.Errorf("%w: %s: %w", ErrModelInit, m.name, err)
				m.logger.Error("failed to load model", "model", m.name, "err", err)
				return
			}
			sessions = append(sessions, s)
		}
		m.idle = sessions
		m.all = append([]session(nil), sessions...)
	})
	return m.initErr
}

// Infer runs one sequence through a pooled session. When ctx ends first Infer
// returns ctx.Err() at once; the session is returned to the pool when the
// underlying run completes.
func (m *Model) Infer(ctx context.Context, ids, mask []int64) (ai.Tensor, error) {
	if m.closed.Load() {
		return ai.Tensor{}, ErrModelClosed
	}
	if len(ids) != len(mask) {
		return ai.Tensor{}, fmt.Errorf("ids and mask length differ: %d != %d", len(ids), len(mask))
	}
	if err := m.init(); err != nil {
		return ai.Tensor{}, err
	}
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return ai.Tensor{}, err
	}
	if m.closed.Load() {
		m.sem.Release(1)
		return ai.Tensor{}, ErrModelClosed
	}

	s := m.take()

	type result struct {
		out ai.Tensor
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			m.put(s)
			m.sem.Release(1)
		}()
		out, err := s.run(ids, mask)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		m.logger.Debug("inference abandoned", "model", m.name, "err", ctx.Err())
		return ai.Tensor{}, ctx.Err()
	}
}

func (m *Model) take() session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.idle[len(m.idle)-1]
	m.idle = m.idle[:len(m.idle)-1]
	return s
}

func (m *Model) put(s session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idle = append(m.idle, s)
}

// Close waits for running inferences and destroys all sessions. Calling Close
// more than once is a no-op.
func (m *Model) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	// Holding every slot means no run is in flight.
	if err := m.sem.Acquire(context.Background(), int64(m.size)); err != nil {
		return err
	}
	defer m.sem.Release(int64(m.size))

	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, s := range m.all {
		if err := s.destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	m.idle = nil
	m.all = nil
	m.logger.Debug("model closed", "model", m.name)
	return errors.Join(errs...)
}

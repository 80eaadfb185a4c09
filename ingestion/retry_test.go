package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_Do(t *testing.T) {
	persistent := errors.New("persistent error")

	tests := []struct {
		name         string
		failures     int
		attempts     int
		wantErr      error
		wantAttempts int
	}{
		{name: "first try", failures: 0, attempts: 3, wantAttempts: 1},
		{name: "eventual success", failures: 2, attempts: 5, wantAttempts: 3},
		{name: "all attempts fail", failures: 10, attempts: 3, wantErr: persistent, wantAttempts: 3},
		{name: "single attempt", failures: 1, attempts: 1, wantErr: persistent, wantAttempts: 1},
		{name: "invalid attempts", attempts: 0, wantErr: ErrInvalidMaxAttempts, wantAttempts: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			b := Backoff{Attempts: tt.attempts, BaseDelay: time.Millisecond}
			err := b.Do(context.Background(), nil, func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return persistent
				}
				return nil
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, calls)
		})
	}
}

func TestBackoff_DoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Backoff{Attempts: 10, BaseDelay: time.Millisecond}.Do(ctx, nil, func(context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("error")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestBackoff_Delay(t *testing.T) {
	b := Backoff{Attempts: 10, BaseDelay: 500 * time.Millisecond}
	assert.Equal(t, 500*time.Millisecond, b.Delay(1))
	assert.Equal(t, time.Second, b.Delay(2))
	assert.Equal(t, 4*time.Second, b.Delay(4))
	assert.Equal(t, MaxRetryDelay, b.Delay(20))
	assert.Zero(t, b.Delay(0))
	assert.Zero(t, Backoff{Attempts: 3}.Delay(2))
}

func TestBackoff_Waits(t *testing.T) {
	var stamps []time.Time
	_ = Backoff{Attempts: 3, BaseDelay: 20 * time.Millisecond}.Do(context.Background(), nil, func(context.Context) error {
		stamps = append(stamps, time.Now())
		return errors.New("error")
	})

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

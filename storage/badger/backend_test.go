package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir()
	backend, err := OpenBackend(tmpDir+"/db", false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func TestBackend_WriteBatchAndScan(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	var keys, values [][]byte
	for i := 0; i < 5; i++ {
		keys = append(keys, []byte(fmt.Sprintf("p:%d", i)))
		values = append(values, []byte(fmt.Sprintf("v%d", i)))
	}
	keys = append(keys, []byte("other:1"))
	values = append(values, []byte("x"))
	require.NoError(t, backend.WriteBatch(ctx, keys, values))

	var seen []string
	err = backend.Scan(ctx, []byte("p:"), false, func(key, value []byte) error {
		seen = append(seen, string(key)+"="+string(value))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p:0=v0", "p:1=v1", "p:2=v2", "p:3=v3", "p:4=v4"}, seen)

	count := 0
	err = backend.Scan(ctx, []byte("p:"), true, func(key, value []byte) error {
		assert.Nil(t, value)
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	require.NoError(t, backend.DropPrefix([]byte("p:")))
	count = 0
	err = backend.Scan(ctx, []byte(""), true, func(_, _ []byte) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the unrelated key survives")
}

func TestBackend_ScanCancelled(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.WriteBatch(context.Background(), [][]byte{[]byte("k")}, [][]byte{[]byte("v")}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = backend.Scan(ctx, []byte("k"), false, func(_, _ []byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "db")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackend_WriteBatchShape(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	err = backend.WriteBatch(context.Background(), [][]byte{[]byte("k")}, nil)
	assert.ErrorIs(t, err, errBatchShape)
}

package local

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/marquee/ai"
	"github.com/poiesic/marquee/ai/mock"
	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/tokenizer"
)

func testTokenizer(t *testing.T, maxLength int) *tokenizer.Tokenizer {
	t.Helper()
	vocab, err := tokenizer.NewVocabulary([]string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]", "科幻", "太空", "未来"})
	require.NoError(t, err)
	tok, err := tokenizer.New(vocab, maxLength)
	require.NoError(t, err)
	return tok
}

func smallVariant(normalize bool) Variant {
	return Variant{Name: "test", MaxLength: 8, Dimension: 4, Normalize: normalize, Pooling: PoolMean}
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("normalized variant has unit length", func(t *testing.T) {
		backend := mock.NewMockInferenceBackend()
		backend.Dimension = 4
		e, err := newEmbedder(testTokenizer(t, 8), backend, smallVariant(true))
		require.NoError(t, err)

		for _, text := range []string{"科幻", "太空 未来", "", "完全 未知 的 词"} {
			v, err := e.EmbedText(ctx, text)
			require.NoError(t, err)
			assert.Len(t, v, 4)
			assert.InDelta(t, 1.0, norm(v), 1e-4)
		}
	})

	t.Run("unnormalized variant keeps raw mean", func(t *testing.T) {
		backend := mock.NewMockInferenceBackend()
		backend.Dimension = 4
		backend.Batched = true
		e, err := newEmbedder(testTokenizer(t, 8), backend, smallVariant(false))
		require.NoError(t, err)

		// ids: [CLS]=2 科幻=5 [SEP]=3 then five [PAD]=0
		v, err := e.EmbedText(ctx, "科幻")
		require.NoError(t, err)
		// column j averages (id+j+1)/1000 over all eight positions
		for j := 0; j < 4; j++ {
			want := (float64(2+5+3+0*5) + 8*float64(j+1)) / 1000 / 8
			assert.InDelta(t, want, v[j], 1e-6)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		backend := mock.NewMockInferenceBackend()
		backend.Dimension = 4
		e, err := newEmbedder(testTokenizer(t, 8), backend, smallVariant(true))
		require.NoError(t, err)

		a, err := e.EmbedText(ctx, "太空 未来")
		require.NoError(t, err)
		b, err := e.EmbedText(ctx, "太空 未来")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("backend receives fixed-length arrays", func(t *testing.T) {
		backend := mock.NewMockInferenceBackend()
		backend.InferFunc = func(ctx context.Context, ids, mask []int64) (ai.Tensor, error) {
			assert.Len(t, ids, 8)
			assert.Len(t, mask, 8)
			return ai.NewTensor([][]float32{{1, 1, 1, 1}}), nil
		}
		e, err := newEmbedder(testTokenizer(t, 8), backend, smallVariant(false))
		require.NoError(t, err)

		_, err = e.EmbedText(ctx, "科幻")
		require.NoError(t, err)
		assert.Equal(t, 1, backend.CallCount())
	})
}

func TestEmbedder_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		infer func(ctx context.Context, ids, mask []int64) (ai.Tensor, error)
		is    error
	}{
		{
			name: "backend failure",
			infer: func(context.Context, []int64, []int64) (ai.Tensor, error) {
				return ai.Tensor{}, errors.New("session crashed")
			},
		},
		{
			name: "wrong dimension",
			infer: func(context.Context, []int64, []int64) (ai.Tensor, error) {
				return ai.NewTensor([][]float32{{1, 2, 3}}), nil
			},
			is: core.ErrDimensionMismatch,
		},
		{
			name: "NaN output",
			infer: func(context.Context, []int64, []int64) (ai.Tensor, error) {
				return ai.NewTensor([][]float32{{1, float32(math.NaN()), 3, 4}}), nil
			},
			is: core.ErrNonFinite,
		},
		{
			name: "bad rank",
			infer: func(context.Context, []int64, []int64) (ai.Tensor, error) {
				return ai.Tensor{Shape: []int64{4}, Data: []float32{1, 2, 3, 4}}, nil
			},
			is: ErrShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mock.NewMockInferenceBackend()
			backend.InferFunc = tt.infer
			e, err := newEmbedder(testTokenizer(t, 8), backend, smallVariant(true))
			require.NoError(t, err)

			_, err = e.EmbedText(ctx, "科幻 电影")
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrEmbedding)
			assert.Contains(t, err.Error(), "科幻 电影", "error names the offending text")
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestEmbedder_Cache(t *testing.T) {
	backend := mock.NewMockInferenceBackend()
	backend.Dimension = 4
	e, err := newEmbedder(testTokenizer(t, 8), backend, smallVariant(true), WithCache(10))
	require.NoError(t, err)

	a, err := e.EmbedText(context.Background(), "科幻")
	require.NoError(t, err)
	a[0] = 42 // callers cannot corrupt the cache

	b, err := e.EmbedText(context.Background(), "科幻")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.CallCount())
	assert.NotEqual(t, float32(42), b[0])
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	backend := mock.NewMockInferenceBackend()
	backend.Dimension = 4
	e, err := newEmbedder(testTokenizer(t, 8), backend, smallVariant(true))
	require.NoError(t, err)

	vectors, err := e.EmbedTexts(context.Background(), []string{"科幻", "太空"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestNewEmbedder_Validation(t *testing.T) {
	backend := mock.NewMockInferenceBackend()

	_, err := NewEmbedder(nil, backend, smallVariant(true))
	assert.ErrorIs(t, err, tokenizer.ErrTokenization)

	_, err = NewEmbedder(testTokenizer(t, 8), nil, smallVariant(true))
	assert.Error(t, err)

	_, err = NewEmbedder(testTokenizer(t, 16), backend, smallVariant(true))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "max length"))

	bad := smallVariant(true)
	bad.Pooling = "max"
	_, err = NewEmbedder(testTokenizer(t, 8), backend, bad)
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	assert.Nil(t, NewCache(0))

	var nilCache *Cache
	_, ok := nilCache.Get("x")
	assert.False(t, ok)
	nilCache.Add("x", []float32{1})
	assert.Equal(t, 0, nilCache.Len())

	c := NewCache(2)
	c.Add("a", []float32{1})
	c.Add("b", []float32{2})
	c.Add("c", []float32{3})
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("a")
	assert.False(t, ok, "least recently used entry is evicted")
	v, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, []float32{3}, v)
}

package tokenizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokens gives [PAD]=0 [UNK]=1 [CLS]=2 [SEP]=3 [MASK]=4 and words from 5.
var testTokens = []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "[MASK]", "流浪地球", "科幻", "电影", "太空"}

func newTestTokenizer(t *testing.T, maxLength int) *Tokenizer {
	t.Helper()
	vocab, err := NewVocabulary(testTokens)
	require.NoError(t, err)
	tok, err := New(vocab, maxLength)
	require.NoError(t, err)
	return tok
}

func TestTokenize(t *testing.T) {
	tok := newTestTokenizer(t, 8)

	tests := []struct {
		name string
		text string
		want []int64
	}{
		{"known words", "流浪地球 科幻", []int64{2, 5, 6, 3, 0, 0, 0, 0}},
		{"unknown word", "流浪地球 喜剧", []int64{2, 5, 1, 3, 0, 0, 0, 0}},
		{"extra whitespace", "  科幻\t\n电影  ", []int64{2, 6, 7, 3, 0, 0, 0, 0}},
		{"empty text", "", []int64{2, 3, 0, 0, 0, 0, 0, 0}},
		{"compound without spaces", "科幻电影", []int64{2, 1, 3, 0, 0, 0, 0, 0}},
		{"exactly full", "科幻 电影 太空 科幻 电影 太空", []int64{2, 6, 7, 8, 6, 7, 8, 3}},
		{"truncated drops end token", "科幻 电影 太空 科幻 电影 太空 科幻", []int64{2, 6, 7, 8, 6, 7, 8, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := tok.Tokenize(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.IDs)
		})
	}
}

func TestTokenize_FixedLength(t *testing.T) {
	tok := newTestTokenizer(t, 16)

	texts := []string{
		"",
		"科幻",
		strings.Repeat("电影 ", 100),
		"a b c d e f g h i j k l m n o p q r s t",
	}
	for _, text := range texts {
		in, err := tok.Tokenize(text)
		require.NoError(t, err)
		mask := in.AttentionMask()

		assert.Len(t, in.IDs, 16)
		assert.Len(t, mask, 16)
		for i := range in.IDs {
			assert.Equal(t, in.IDs[i] == 0, mask[i] == 0, "mask must be 0 exactly at pad positions")
		}
	}
}

func TestAttentionMask(t *testing.T) {
	tok := newTestTokenizer(t, 6)

	in, err := tok.Tokenize("科幻 电影")
	require.NoError(t, err)

	mask := in.AttentionMask()
	assert.Equal(t, AttentionMask{1, 1, 1, 1, 0, 0}, mask)
	assert.Equal(t, 4, mask.Attended())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, 8)
	assert.ErrorIs(t, err, ErrTokenization)

	vocab, err := NewVocabulary(testTokens)
	require.NoError(t, err)
	_, err = New(vocab, 0)
	assert.ErrorIs(t, err, ErrTokenization)
}

func TestTokenize_NilTokenizer(t *testing.T) {
	var tok *Tokenizer
	_, err := tok.Tokenize("科幻")
	assert.ErrorIs(t, err, ErrTokenization)
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, "vocab.txt")
	require.NoError(t, os.WriteFile(vocabPath, []byte("<pad>\n<unk>\n<s>\n</s>\n<mask>\n  科幻  \n电影\n"), 0o644))

	t.Run("string and object entries", func(t *testing.T) {
		specialPath := filepath.Join(dir, "special_tokens_map.json")
		require.NoError(t, os.WriteFile(specialPath, []byte(`{
			"pad_token": "<pad>",
			"unk_token": {"content": "<unk>", "lstrip": false},
			"cls_token": "<s>",
			"sep_token": "</s>",
			"mask_token": {"content": "<mask>"}
		}`), 0o644))

		vocab, err := LoadVocabulary(vocabPath, specialPath)
		require.NoError(t, err)

		assert.Equal(t, SpecialTokens{Pad: 0, Unknown: 1, Begin: 2, End: 3, Mask: 4}, vocab.Special())
		id, ok := vocab.ID("科幻")
		assert.True(t, ok, "lines are trimmed")
		assert.Equal(t, int64(5), id)
		assert.Equal(t, 7, vocab.Size())
	})

	t.Run("special token missing from vocabulary", func(t *testing.T) {
		specialPath := filepath.Join(dir, "bad_special.json")
		require.NoError(t, os.WriteFile(specialPath, []byte(`{
			"pad_token": "[PAD]", "unk_token": "<unk>", "cls_token": "<s>",
			"sep_token": "</s>", "mask_token": "<mask>"
		}`), 0o644))

		_, err := LoadVocabulary(vocabPath, specialPath)
		assert.ErrorIs(t, err, ErrTokenization)
		assert.Contains(t, err.Error(), "[PAD]")
	})

	t.Run("special token not declared", func(t *testing.T) {
		specialPath := filepath.Join(dir, "partial_special.json")
		require.NoError(t, os.WriteFile(specialPath, []byte(`{"pad_token": "<pad>"}`), 0o644))

		_, err := LoadVocabulary(vocabPath, specialPath)
		assert.ErrorIs(t, err, ErrTokenization)
	})

	t.Run("default special tokens", func(t *testing.T) {
		_, err := LoadVocabulary(vocabPath, "")
		assert.ErrorIs(t, err, ErrTokenization, "vocabulary has no [PAD]")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadVocabulary(filepath.Join(dir, "nope.txt"), "")
		assert.ErrorIs(t, err, ErrTokenization)
	})
}

func TestReadVocabulary_DuplicateKeepsLastLine(t *testing.T) {
	vocab, err := ReadVocabulary(strings.NewReader("[PAD]\n[UNK]\n[CLS]\n[SEP]\n[MASK]\n科幻\n科幻\n"))
	require.NoError(t, err)

	id, ok := vocab.ID("科幻")
	require.True(t, ok)
	assert.Equal(t, int64(6), id)
}

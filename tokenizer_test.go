package tokenizer

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// writeTestEncoding lays out a ranks file and a config document naming it
// cl100k_base, and returns the config path. The vocabulary covers every
// single byte plus a few learned merges.
func writeTestEncoding(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	var sb strings.Builder
	rank := 0
	for b := 0; b < 256; b++ {
		fmt.Fprintf(&sb, "%s %d\n", base64.StdEncoding.EncodeToString([]byte{byte(b)}), rank)
		rank++
	}
	for _, tok := range []string{"he", "ll", "lo", "llo", "hello", " w", "or", "ld", " wo"} {
		fmt.Fprintf(&sb, "%s %d\n", base64.StdEncoding.EncodeToString([]byte(tok)), rank)
		rank++
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cl100k_base.tiktoken"), []byte(sb.String()), 0o644))

	config := `[encodings.cl100k_base]
ranks = "cl100k_base.tiktoken"
pattern = "'s|'t|'re|'ve|'m|'ll|'d| ?\\p{L}+| ?\\p{N}+| ?[^\\s\\p{L}\\p{N}]+|\\s+(?!\\S)|\\s+"

[encodings.cl100k_base.special_tokens]
"<|endoftext|>" = 100257
"<|fim_prefix|>" = 100258
`
	path := filepath.Join(dir, "tiktoken.toml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))
	return path
}

func newTestTokenizer(t *testing.T) *Tiktoken {
	t.Helper()
	factory, err := NewFactory(writeTestEncoding(t))
	require.NoError(t, err)
	tk, err := factory.Create("cl100k_base")
	require.NoError(t, err)
	return tk
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tk := newTestTokenizer(t)

	ids, err := tk.Encode("hello world")
	require.NoError(t, err)
	require.NotEmpty(t, ids)

	text, err := tk.DecodeString(ids)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestEncodeEmpty(t *testing.T) {
	tk := newTestTokenizer(t)

	ids, err := tk.Encode("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	raw, err := tk.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestEncodeSingleToken(t *testing.T) {
	tk := newTestTokenizer(t)

	ids, err := tk.Encode("a")
	require.NoError(t, err)
	assert.Equal(t, []Rank{'a'}, ids)
}

func TestEncodeAllowedSpecial(t *testing.T) {
	tk := newTestTokenizer(t)

	ids, err := tk.EncodeWithAllowedSpecial("hi<|endoftext|>bye", AllowedSpecials("<|endoftext|>"))
	require.NoError(t, err)

	count := 0
	for _, id := range ids {
		if id == 100257 {
			count++
		}
	}
	assert.Equal(t, 1, count, "special id must appear exactly once: %v", ids)

	hi, err := tk.EncodeOrdinary("hi")
	require.NoError(t, err)
	bye, err := tk.EncodeOrdinary("bye")
	require.NoError(t, err)
	want := append(append(append([]Rank{}, hi...), 100257), bye...)
	assert.Equal(t, want, ids)
}

func TestEncodeDisallowedSpecial(t *testing.T) {
	tk := newTestTokenizer(t)

	ids, err := tk.EncodeWithAllowedSpecial("hi<|endoftext|>bye", AllowedSpecials())
	require.NoError(t, err)
	assert.NotContains(t, ids, Rank(100257))

	text, err := tk.DecodeString(ids)
	require.NoError(t, err)
	assert.Equal(t, "hi<|endoftext|>bye", text)
}

func TestSpecialAbsentFromTextIsNoOp(t *testing.T) {
	tk := newTestTokenizer(t)

	withAllowed, err := tk.EncodeWithAllowedSpecial("hello world", AllowedSpecials("<|endoftext|>"))
	require.NoError(t, err)
	ordinary, err := tk.EncodeOrdinary("hello world")
	require.NoError(t, err)
	assert.Equal(t, ordinary, withAllowed)
}

func TestDecodeErrors(t *testing.T) {
	tk := newTestTokenizer(t)

	raw, err := tk.Decode([]Rank{'h', 'i'})
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), raw)

	_, err = tk.Decode([]Rank{3_999_999_999})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnknownToken), "got %v", err)
}

func TestEncodeFullLastPiece(t *testing.T) {
	tk := newTestTokenizer(t)

	_, last, err := tk.EncodeFull("hello world", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, last, "\" world\" merges to three tokens")

	_, last, err = tk.EncodeFull("hi<|endoftext|>", AllowedSpecials("<|endoftext|>"))
	require.NoError(t, err)
	assert.Equal(t, 0, last)
}

func TestIsSpecialToken(t *testing.T) {
	tk := newTestTokenizer(t)
	assert.True(t, tk.IsSpecialToken(100257))
	assert.False(t, tk.IsSpecialToken('a'))
}

func TestConcurrentEncodeDecode(t *testing.T) {
	tk := newTestTokenizer(t)

	texts := []string{
		"hello world",
		"hi<|endoftext|>bye",
		"don't stop",
		strings.Repeat("hello world ", 64),
	}
	serial := make([][]Rank, len(texts))
	for i, text := range texts {
		ids, err := tk.Encode(text)
		require.NoError(t, err)
		serial[i] = ids
	}

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 200; i++ {
				for j, text := range texts {
					ids, err := tk.Encode(text)
					if err != nil {
						return err
					}
					if !assert.ObjectsAreEqual(serial[j], ids) {
						return fmt.Errorf("text %d: concurrent %v != serial %v", j, ids, serial[j])
					}
					if _, err := tk.Decode(ids); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

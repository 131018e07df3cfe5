package tokenizer

import (
	"github.com/sewenew/tokenizer/bpe"
)

// Rank is the integer id of a token.
type Rank = bpe.Rank

// Entry is one (bytes, rank) vocabulary pair.
type Entry = bpe.Entry

// AllowedSet is the membership capability the encoder expects from an
// allowed-specials container.
type AllowedSet = bpe.AllowedSet

// Error is the tagged error type shared by the whole module.
type Error = bpe.Error

// Kind re-exports for error classification without importing bpe.
const (
	KindConfig       = bpe.KindConfig
	KindIO           = bpe.KindIO
	KindVocabulary   = bpe.KindVocabulary
	KindPattern      = bpe.KindPattern
	KindUnknownToken = bpe.KindUnknownToken
	KindUnencodable  = bpe.KindUnencodable
)

// IsKind reports whether err is a tokenizer error of the given kind.
func IsKind(err error, kind bpe.Kind) bool { return bpe.IsKind(err, kind) }

// AllowedSpecials builds an allowed set from literal strings.
func AllowedSpecials(literals ...string) AllowedSet {
	return bpe.NewStringSet(literals...)
}

// Tiktoken is one tokenizer instance. It owns its vocabulary, special
// table, and compiled patterns, and is safe for concurrent use after
// construction.
type Tiktoken struct {
	core *bpe.CoreBPE
}

// New builds a Tiktoken from vocabulary entries, special tokens, and the
// coarse pattern source.
func New(entries []Entry, specialTokens map[string]Rank, pattern string) (*Tiktoken, error) {
	vocab, err := bpe.NewVocabulary(entries)
	if err != nil {
		return nil, err
	}
	core, err := bpe.NewCoreBPE(vocab, specialTokens, pattern)
	if err != nil {
		return nil, err
	}
	return &Tiktoken{core: core}, nil
}

// Encode tokenizes text with every configured special token allowed.
func (t *Tiktoken) Encode(text string) ([]Rank, error) {
	return t.core.EncodeWithSpecialTokens(text)
}

// EncodeOrdinary tokenizes text with no special-token recognition;
// special literals in the input pass through BPE as ordinary bytes.
func (t *Tiktoken) EncodeOrdinary(text string) ([]Rank, error) {
	return t.core.EncodeOrdinary(text)
}

// EncodeWithAllowedSpecial tokenizes text recognizing only the specials in
// allowed.
func (t *Tiktoken) EncodeWithAllowedSpecial(text string, allowed AllowedSet) ([]Rank, error) {
	toks, _, err := t.core.Encode(text, allowed)
	return toks, err
}

// EncodeFull is EncodeWithAllowedSpecial plus the number of tokens the
// last coarse piece produced (0 when the stream ends on a special).
func (t *Tiktoken) EncodeFull(text string, allowed AllowedSet) ([]Rank, int, error) {
	return t.core.Encode(text, allowed)
}

// Decode reconstructs the raw bytes for ids.
func (t *Tiktoken) Decode(ids []Rank) ([]byte, error) {
	return t.core.Decode(ids)
}

// DecodeString reconstructs ids as a string.
func (t *Tiktoken) DecodeString(ids []Rank) (string, error) {
	b, err := t.core.Decode(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Size returns the ordinary vocabulary size.
func (t *Tiktoken) Size() int { return t.core.Vocabulary().Size() }

// IsSpecialToken reports whether id is a configured special token.
func (t *Tiktoken) IsSpecialToken(id Rank) bool { return t.core.IsSpecialToken(id) }

package bpe

import (
	"sync"
)

// CoreBPE ties the vocabulary, the special-token table, and the segmenter
// into the encoder/decoder pair. It is read-only after construction;
// encode and decode are pure functions of the input and may run
// concurrently without coordination.
type CoreBPE struct {
	vocab     *Vocabulary
	specials  *SpecialTokens
	seg       *Segmenter
	partsPool sync.Pool
}

// NewCoreBPE builds a tokenizer core from a vocabulary, the configured
// special tokens, and the coarse pattern source. Special ranks must not
// collide with ordinary ranks.
func NewCoreBPE(vocab *Vocabulary, specialTokens map[string]Rank, pattern string) (*CoreBPE, error) {
	specials, err := NewSpecialTokens(specialTokens)
	if err != nil {
		return nil, err
	}
	for lit, id := range specialTokens {
		if b, ok := vocab.BytesOf(id); ok {
			return nil, Errorf(KindVocabulary, "special token %q rank %d collides with token %q", lit, id, b)
		}
	}
	seg, err := NewSegmenter(pattern, specials)
	if err != nil {
		return nil, err
	}
	return &CoreBPE{
		vocab:    vocab,
		specials: specials,
		seg:      seg,
		partsPool: sync.Pool{New: func() any {
			b := make([]part, 0, 64)
			return &b
		}},
	}, nil
}

// Vocabulary returns the ordinary token table.
func (c *CoreBPE) Vocabulary() *Vocabulary { return c.vocab }

// SpecialTokens returns the special-token table.
func (c *CoreBPE) SpecialTokens() *SpecialTokens { return c.specials }

// EncodeOrdinary encodes text without any special-token recognition.
func (c *CoreBPE) EncodeOrdinary(text string) ([]Rank, error) {
	toks, _, err := c.Encode(text, nil)
	return toks, err
}

// EncodeWithSpecialTokens encodes text with every configured special
// allowed.
func (c *CoreBPE) EncodeWithSpecialTokens(text string) ([]Rank, error) {
	toks, _, err := c.Encode(text, c.specials)
	return toks, err
}

// Encode produces the token stream for text, recognizing only specials in
// the allowed set. It also returns the number of tokens produced by the
// last coarse piece (0 when the stream ends on a special token); callers
// that split streams across calls use it to find how many tail tokens came
// from a single split.
func (c *CoreBPE) Encode(text string, allowed AllowedSet) ([]Rank, int, error) {
	runes := []rune(text)
	out := make([]Rank, 0, len(runes)/3+8)
	last := 0
	cursor := 0
	for {
		lit, prefixEnd, found := c.seg.nextSpecial(runes, cursor, allowed)

		err := c.seg.pieces(runes, cursor, prefixEnd, func(piece string) error {
			if id, ok := c.vocab.rankOfString(piece); ok {
				out = append(out, id)
				last = 1
				return nil
			}
			before := len(out)
			var err error
			out, err = c.bytePairEncode(piece, out)
			if err != nil {
				return err
			}
			last = len(out) - before
			return nil
		})
		if err != nil {
			return nil, 0, err
		}

		if !found {
			break
		}
		// Present by construction: the alternation only matches configured
		// literals.
		id, _ := c.specials.RankOf(lit)
		out = append(out, id)
		last = 0
		cursor = prefixEnd + len([]rune(lit))
	}
	return out, last, nil
}

// Decode reconstructs the raw bytes for a token sequence. Ordinary tokens
// are looked up first, then specials. The result is a plain byte
// concatenation; no UTF-8 validation is performed.
func (c *CoreBPE) Decode(ids []Rank) ([]byte, error) {
	out := make([]byte, 0, len(ids)*2)
	for _, id := range ids {
		if c.vocab.appendBytes(&out, id) {
			continue
		}
		if b, ok := c.specials.BytesOf(id); ok {
			out = append(out, b...)
			continue
		}
		return nil, Errorf(KindUnknownToken, "unknown token: %d", id)
	}
	return out, nil
}

// IsSpecialToken reports whether id belongs to the special table.
func (c *CoreBPE) IsSpecialToken(id Rank) bool {
	_, ok := c.specials.BytesOf(id)
	return ok
}

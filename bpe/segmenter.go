package bpe

import (
	"github.com/dlclark/regexp2"
)

// AllowedSet is the capability the encoder needs from an allowed-specials
// container: membership tests over literal strings. A nil AllowedSet allows
// nothing.
type AllowedSet interface {
	Contains(lit string) bool
}

// StringSet is a plain AllowedSet over literal strings.
type StringSet map[string]struct{}

// NewStringSet builds a StringSet from literals.
func NewStringSet(literals ...string) StringSet {
	s := make(StringSet, len(literals))
	for _, lit := range literals {
		s[lit] = struct{}{}
	}
	return s
}

// Contains implements AllowedSet.
func (s StringSet) Contains(lit string) bool {
	_, ok := s[lit]
	return ok
}

// Segmenter holds the two compiled patterns driving piece extraction: the
// vocabulary's coarse companion regex and the special-token alternation.
// Both are applied to a rune view of the input because regexp2 match
// offsets count runes, not bytes.
type Segmenter struct {
	coarse  *regexp2.Regexp
	special *regexp2.Regexp // nil when no specials are configured
}

// NewSegmenter compiles the coarse pattern and adopts the special-token
// alternation from the table. The pattern is wrapped in a capturing group,
// matching the upstream convention.
func NewSegmenter(pattern string, specials *SpecialTokens) (*Segmenter, error) {
	if pattern == "" {
		return nil, Errorf(KindPattern, "no pattern is specified")
	}
	coarse, err := regexp2.Compile("("+pattern+")", regexp2.RE2)
	if err != nil {
		return nil, WrapError(KindPattern, err, "compile pattern %q", pattern)
	}
	seg := &Segmenter{coarse: coarse}
	if specials != nil {
		seg.special = specials.pattern
	}
	return seg, nil
}

// pieces finds and consumes coarse matches in text[start:end], invoking fn
// for each matched piece in order. Spans the coarse regex does not match
// are discarded, mirroring the upstream find-and-consume loop.
func (s *Segmenter) pieces(text []rune, start, end int, fn func(piece string) error) error {
	if start >= end {
		return nil
	}
	sub := text[start:end]
	m, err := s.coarse.FindRunesMatch(sub)
	for err == nil && m != nil {
		if err := fn(m.String()); err != nil {
			return err
		}
		m, err = s.coarse.FindNextMatch(m)
	}
	return nil
}

// nextSpecial scans forward from cursor for the next allowed special
// literal. Disallowed matches are skipped so their bytes pass through BPE
// as ordinary text. It returns the literal, the end (exclusive, in runes)
// of the prefix before it, and whether an allowed special was found; when
// none is found the prefix extends to the end of the input.
func (s *Segmenter) nextSpecial(text []rune, cursor int, allowed AllowedSet) (string, int, bool) {
	if s.special == nil || allowed == nil {
		return "", len(text), false
	}
	searchFrom := cursor
	for searchFrom <= len(text) {
		m, err := s.special.FindRunesMatchStartingAt(text, searchFrom)
		if err != nil || m == nil {
			break
		}
		lit := m.String()
		if allowed.Contains(lit) {
			return lit, m.Index, true
		}
		searchFrom = m.Index + m.Length
	}
	return "", len(text), false
}

package bpe

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// SpecialTokens is the immutable two-way table for reserved literal strings
// such as end-of-text markers. Literals are matched only as exact
// substrings of the input; their ranks share the ordinary id space.
type SpecialTokens struct {
	enc map[string]Rank
	dec map[Rank][]byte
	// pattern is the alternation over the quoted literals, or nil when the
	// table is empty.
	pattern *regexp2.Regexp
}

// NewSpecialTokens builds the table and compiles the literal alternation.
// Duplicate ranks fail with a vocabulary error.
func NewSpecialTokens(tokens map[string]Rank) (*SpecialTokens, error) {
	enc := make(map[string]Rank, len(tokens))
	dec := make(map[Rank][]byte, len(tokens))
	for lit, id := range tokens {
		if lit == "" {
			return nil, Errorf(KindVocabulary, "empty special token literal for rank %d", id)
		}
		if id == sentinelRank {
			return nil, Errorf(KindVocabulary, "special token rank %d is reserved", id)
		}
		if prev, ok := dec[id]; ok {
			return nil, Errorf(KindVocabulary, "special tokens %q and %q share rank %d", prev, lit, id)
		}
		enc[lit] = id
		dec[id] = []byte(lit)
	}
	s := &SpecialTokens{enc: enc, dec: dec}
	if len(enc) == 0 {
		return s, nil
	}

	// Longest literal first so overlapping specials (<|end|> vs
	// <|endoftext|>) resolve greedily and deterministically.
	literals := make([]string, 0, len(enc))
	for lit := range enc {
		literals = append(literals, lit)
	}
	sort.Slice(literals, func(i, j int) bool {
		if len(literals[i]) != len(literals[j]) {
			return len(literals[i]) > len(literals[j])
		}
		return literals[i] < literals[j]
	})
	quoted := make([]string, len(literals))
	for i, lit := range literals {
		quoted[i] = regexp.QuoteMeta(lit)
	}
	pattern, err := regexp2.Compile("("+strings.Join(quoted, "|")+")", regexp2.RE2)
	if err != nil {
		return nil, WrapError(KindPattern, err, "compile special token pattern")
	}
	s.pattern = pattern
	return s, nil
}

// RankOf returns the rank for a special literal.
func (s *SpecialTokens) RankOf(lit string) (Rank, bool) {
	r, ok := s.enc[lit]
	return r, ok
}

// BytesOf returns the literal bytes for a special rank.
func (s *SpecialTokens) BytesOf(r Rank) ([]byte, bool) {
	b, ok := s.dec[r]
	return b, ok
}

// Size returns the number of configured specials.
func (s *SpecialTokens) Size() int { return len(s.enc) }

// Contains reports whether lit is a configured special literal. It makes
// the table itself usable as the allowed set for all-specials encoding.
func (s *SpecialTokens) Contains(lit string) bool {
	_, ok := s.enc[lit]
	return ok
}

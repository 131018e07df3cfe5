package bpe

import (
	"bytes"
	"testing"
)

func TestVocabularyLookupBothWays(t *testing.T) {
	vocab, err := NewVocabulary(testEntries())
	if err != nil {
		t.Fatal(err)
	}
	if vocab.Size() != len(testEntries()) {
		t.Fatalf("size %d want %d", vocab.Size(), len(testEntries()))
	}
	for _, e := range testEntries() {
		r, ok := vocab.RankOf(e.Bytes)
		if !ok || r != e.Rank {
			t.Fatalf("RankOf(%q) = %d,%v want %d", e.Bytes, r, ok, e.Rank)
		}
		b, ok := vocab.BytesOf(e.Rank)
		if !ok || !bytes.Equal(b, e.Bytes) {
			t.Fatalf("BytesOf(%d) = %q,%v want %q", e.Rank, b, ok, e.Bytes)
		}
	}
	if _, ok := vocab.RankOf([]byte("no such token")); ok {
		t.Fatal("unexpected hit")
	}
	if _, ok := vocab.BytesOf(999_999); ok {
		t.Fatal("unexpected rank hit")
	}
}

func TestVocabularyConstructionErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"duplicate bytes", []Entry{
			{Bytes: []byte("a"), Rank: 1},
			{Bytes: []byte("a"), Rank: 2},
		}},
		{"duplicate rank", []Entry{
			{Bytes: []byte("a"), Rank: 1},
			{Bytes: []byte("b"), Rank: 1},
		}},
		{"empty bytes", []Entry{{Bytes: nil, Rank: 1}}},
		{"reserved rank", []Entry{{Bytes: []byte("a"), Rank: sentinelRank}}},
	}
	for _, tc := range tests {
		if _, err := NewVocabulary(tc.entries); !IsKind(err, KindVocabulary) {
			t.Fatalf("%s: got %v, want vocabulary error", tc.name, err)
		}
	}
}

func TestSpecialTokensTable(t *testing.T) {
	specials, err := NewSpecialTokens(map[string]Rank{
		"<|endoftext|>": 100257,
		"<|fim|>":       100258,
	})
	if err != nil {
		t.Fatal(err)
	}
	if specials.Size() != 2 {
		t.Fatalf("size %d", specials.Size())
	}
	if r, ok := specials.RankOf("<|endoftext|>"); !ok || r != 100257 {
		t.Fatalf("RankOf = %d,%v", r, ok)
	}
	if b, ok := specials.BytesOf(100258); !ok || string(b) != "<|fim|>" {
		t.Fatalf("BytesOf = %q,%v", b, ok)
	}
	if !specials.Contains("<|fim|>") || specials.Contains("<|nope|>") {
		t.Fatal("Contains mismatch")
	}
	if specials.pattern == nil {
		t.Fatal("expected compiled alternation")
	}
}

func TestSpecialTokensEmpty(t *testing.T) {
	specials, err := NewSpecialTokens(nil)
	if err != nil {
		t.Fatal(err)
	}
	if specials.Size() != 0 || specials.pattern != nil {
		t.Fatal("empty table must have no pattern")
	}
}

func TestSpecialTokensDuplicateRank(t *testing.T) {
	_, err := NewSpecialTokens(map[string]Rank{
		"<|a|>": 7,
		"<|b|>": 7,
	})
	if !IsKind(err, KindVocabulary) {
		t.Fatalf("got %v, want vocabulary error", err)
	}
}

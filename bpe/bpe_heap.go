package bpe

import (
	"cmp"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// span is one surviving byte range during a heap merge. Dead spans keep
// their slot so candidate indices stay stable; merges always extend the
// left span and kill the right one.
type span struct {
	start, end int
	prev, next int
	dead       bool
}

// candidate is a potential merge of two adjacent spans. The extents are
// recorded at push time; a mismatch at pop time means the candidate went
// stale through an earlier merge.
type candidate struct {
	left, right       int
	leftEnd, rightEnd int
	rank              Rank
}

// bytePairEncodeHeap is the O(k log n) variant of the merge loop for long
// pieces. Output is identical to the flat engine, including leftmost
// tie-breaking: the heap orders by (rank, left start).
func (c *CoreBPE) bytePairEncodeHeap(piece string, out []Rank) ([]Rank, error) {
	n := len(piece)
	spans := make([]span, n)
	for i := range spans {
		spans[i] = span{start: i, end: i + 1, prev: i - 1, next: i + 1}
	}

	h := binaryheap.NewWith(func(a, b *candidate) int {
		if d := cmp.Compare(a.rank, b.rank); d != 0 {
			return d
		}
		return cmp.Compare(a.left, b.left)
	})

	push := func(a, b int) {
		if a < 0 || b >= n {
			return
		}
		if r, ok := c.vocab.rankOfString(piece[spans[a].start:spans[b].end]); ok {
			h.Push(&candidate{
				left:     a,
				right:    b,
				leftEnd:  spans[a].end,
				rightEnd: spans[b].end,
				rank:     r,
			})
		}
	}
	for i := 0; i+1 < n; i++ {
		push(i, i+1)
	}

	for !h.Empty() {
		cand, _ := h.Pop()
		l, r := cand.left, cand.right
		if spans[l].dead || spans[r].dead || spans[l].next != r ||
			spans[l].end != cand.leftEnd || spans[r].end != cand.rightEnd {
			continue
		}

		spans[l].end = spans[r].end
		spans[r].dead = true
		spans[l].next = spans[r].next
		if spans[l].next < n {
			spans[spans[l].next].prev = l
		}

		push(spans[l].prev, l)
		push(l, spans[l].next)
	}

	// Span 0 is never the right side of a merge, so it always survives.
	for i := 0; i < n; i = spans[i].next {
		id, ok := c.vocab.rankOfString(piece[spans[i].start:spans[i].end])
		if !ok {
			return out, Errorf(KindUnencodable, "no token for %q", piece[spans[i].start:spans[i].end])
		}
		out = append(out, id)
	}
	return out, nil
}

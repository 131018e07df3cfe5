package bpe

// part is one boundary of the merge state: the byte offset where it starts
// and the rank of the pair beginning there. The rank slots of the last two
// parts are never valid.
type part struct {
	start int
	rank  Rank
}

// heapMergeThreshold is the piece length above which the heap engine takes
// over from the flat-array loop. Coarse pieces are almost always far
// shorter, so the flat loop's cache behavior wins in the common case.
const heapMergeThreshold = 192

// bytePairEncode appends the token ids for piece to out. The ids' bytes
// concatenate exactly to piece.
func (c *CoreBPE) bytePairEncode(piece string, out []Rank) ([]Rank, error) {
	if len(piece) == 1 {
		id, ok := c.vocab.rankOfString(piece)
		if !ok {
			return out, Errorf(KindUnencodable, "byte 0x%02x not in vocabulary", piece[0])
		}
		return append(out, id), nil
	}
	if len(piece) > heapMergeThreshold {
		return c.bytePairEncodeHeap(piece, out)
	}
	return c.bytePairEncodeFlat(piece, out)
}

func (c *CoreBPE) bytePairEncodeFlat(piece string, out []Rank) ([]Rank, error) {
	parts, release := c.acquireParts(len(piece) + 1)
	defer release()
	parts = c.bytePairMerge(piece, parts)
	for w := 0; w+1 < len(parts); w++ {
		s, e := parts[w].start, parts[w+1].start
		id, ok := c.vocab.rankOfString(piece[s:e])
		if !ok {
			return out, Errorf(KindUnencodable, "no token for %q", piece[s:e])
		}
		out = append(out, id)
	}
	return out, nil
}

// bytePairMerge runs the merge loop over piece. parts must be empty with
// capacity for len(piece)+1 boundaries; the surviving boundaries are
// returned. O(k*n) for k merges over n bytes; n is typically small enough
// that this beats a heap.
func (c *CoreBPE) bytePairMerge(piece string, parts []part) []part {
	// Boundaries 0..n. Slot i carries the rank of the two-byte pair
	// starting at i; the last two slots stay at the sentinel.
	for i := 0; i+1 < len(piece); i++ {
		r := sentinelRank
		if v, ok := c.vocab.rankOfString(piece[i : i+2]); ok {
			r = v
		}
		parts = append(parts, part{start: i, rank: r})
	}
	parts = append(parts, part{start: len(piece) - 1, rank: sentinelRank})
	parts = append(parts, part{start: len(piece), rank: sentinelRank})

	for {
		// Lowest rank wins; ties break leftmost by scan order.
		minRank := sentinelRank
		minIdx := -1
		for i := 0; i+1 < len(parts); i++ {
			if parts[i].rank < minRank {
				minRank = parts[i].rank
				minIdx = i
			}
		}
		if minIdx < 0 {
			break
		}
		i := minIdx
		// Recompute the two affected ranks before removing the boundary;
		// skip=1 looks across the boundary that is about to go away.
		parts[i].rank = c.pairRank(piece, parts, i, 1)
		if i > 0 {
			parts[i-1].rank = c.pairRank(piece, parts, i-1, 1)
		}
		parts = append(parts[:i+1], parts[i+2:]...)
	}
	return parts
}

// pairRank returns the rank of the pair starting at parts[i] and spanning
// skip+2 boundaries ahead, or the sentinel when that substring is not in
// the vocabulary.
func (c *CoreBPE) pairRank(piece string, parts []part, i, skip int) Rank {
	if i+skip+2 < len(parts) {
		s := parts[i].start
		e := parts[i+skip+2].start
		if r, ok := c.vocab.rankOfString(piece[s:e]); ok {
			return r
		}
	}
	return sentinelRank
}

func (c *CoreBPE) acquireParts(capHint int) ([]part, func()) {
	var p *[]part
	if v := c.partsPool.Get(); v != nil {
		p = v.(*[]part)
		if cap(*p) < capHint {
			buf := make([]part, 0, capHint)
			p = &buf
		} else {
			*p = (*p)[:0]
		}
	} else {
		buf := make([]part, 0, capHint)
		p = &buf
	}
	release := func() {
		if cap(*p) > 1<<12 {
			return
		}
		*p = (*p)[:0]
		c.partsPool.Put(p)
	}
	return *p, release
}

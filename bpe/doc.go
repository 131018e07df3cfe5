// Package bpe implements the byte-level BPE core: the vocabulary and
// special-token tables, the regex-driven segmenter, the merge engine, and
// the encoder/decoder built from them.
package bpe

// Package tokenizer provides a byte-level BPE tokenizer compatible with
// the tiktoken family of encodings used by modern language models.
//
// A Tiktoken instance is built from a ranked vocabulary, a set of reserved
// special tokens, and a coarse segmentation pattern; a Factory loads named
// encodings from a TOML configuration document. Encoding and decoding are
// pure and safe for unsynchronized concurrent use.
package tokenizer

// Package tokenizer defines the pluggable text↔token-ID collaborator the
// BPE codec leans on. pkg/codec/bpe's tiktoken-backed implementations are
// process-wide singletons per spec §5: initialized lazily, immutable and
// shareable thereafter.
package tokenizer

// Tokenizer turns UTF-8 text into a token-ID sequence and back.
// Detokenize(Tokenize(t)) MUST equal t for any t the tokenizer supports;
// a codec built on top of a Tokenizer does not patch that contract, it
// only reports the tokenizer's own failures (spec §4.5).
type Tokenizer interface {
	Tokenize(text string) ([]uint32, error)
	Detokenize(ids []uint32) (string, error)
}

// Package bpe implements the BPE token codec (spec §4.5): text encoded as
// a tokenizer-tagged VarInt-packed token-ID sequence, via the
// github.com/pkoukk/tiktoken-go BPE library as the tokenizer collaborator.
package bpe

// Vocab identifies which BPE vocabulary a frame was tokenized with.
type Vocab byte

const (
	// VocabCl100k is OpenAI's cl100k_base vocabulary (gpt-3.5/gpt-4 family).
	VocabCl100k Vocab = 0
	// VocabO200k is OpenAI's o200k_base vocabulary (gpt-4o family).
	VocabO200k Vocab = 1
	// VocabLlama shares cl100k_base's vocabulary: this pack carries no
	// dedicated Llama BPE library, so the llama wire tag aliases cl100k
	// per spec §4.5 ("the llama path shares bytes with cl100k unless a
	// dedicated tokenizer is available").
	VocabLlama Vocab = 2
)

// Char returns the text wire form's single-character tokenizer tag.
func (v Vocab) Char() byte {
	switch v {
	case VocabCl100k:
		return 'C'
	case VocabO200k:
		return 'O'
	case VocabLlama:
		return 'L'
	default:
		return '?'
	}
}

// ParseChar maps a text wire form's tokenizer tag character back to a Vocab.
func ParseChar(c byte) (Vocab, bool) {
	switch c {
	case 'C':
		return VocabCl100k, true
	case 'O':
		return VocabO200k, true
	case 'L':
		return VocabLlama, true
	default:
		return 0, false
	}
}

// ParseByte maps a binary wire form's tokenizer id byte back to a Vocab.
func ParseByte(b byte) (Vocab, bool) {
	switch Vocab(b) {
	case VocabCl100k, VocabO200k, VocabLlama:
		return Vocab(b), true
	default:
		return 0, false
	}
}

// encodingName returns the tiktoken-go encoding name backing v.
func (v Vocab) encodingName() string {
	if v == VocabO200k {
		return "o200k_base"
	}
	return "cl100k_base"
}

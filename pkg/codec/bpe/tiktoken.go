package bpe

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/tokenizer"
)

// tiktokenTokenizer adapts a *tiktoken.Tiktoken encoder to the tokenizer.Tokenizer
// interface.
type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenTokenizer) Tokenize(text string) ([]uint32, error) {
	ids := t.enc.Encode(text, nil, nil)
	out := make([]uint32, len(ids))
	for i, v := range ids {
		out[i] = uint32(v)
	}
	return out, nil
}

func (t *tiktokenTokenizer) Detokenize(ids []uint32) (string, error) {
	raw := make([]int, len(ids))
	for i, v := range ids {
		raw[i] = int(v)
	}
	return t.enc.Decode(raw), nil
}

var (
	instancesMu sync.Mutex
	instances   = map[Vocab]tokenizer.Tokenizer{}
)

// For returns the process-singleton Tokenizer for v, initializing it
// lazily on first use per spec §5's shared-resource policy.
func For(v Vocab) (tokenizer.Tokenizer, error) {
	instancesMu.Lock()
	defer instancesMu.Unlock()

	if t, ok := instances[v]; ok {
		return t, nil
	}
	enc, err := tiktoken.GetEncoding(v.encodingName())
	if err != nil {
		return nil, m2merr.NewTokenizerError("failed to load "+v.encodingName(), err)
	}
	t := &tiktokenTokenizer{enc: enc}
	instances[v] = t
	return t, nil
}

package bpe

import (
	"encoding/base64"
	"strings"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/varint"
)

// Prefix is the self-describing text wire prefix for the BPE codec.
const Prefix = "#TK|"

// Encode tokenizes text with vocab's tokenizer and returns the binary wire
// form: <tokenizer id byte> || varint-packed token ids.
func Encode(text string, vocab Vocab) ([]byte, error) {
	tok, err := For(vocab)
	if err != nil {
		return nil, err
	}
	ids, err := tok.Tokenize(text)
	if err != nil {
		return nil, m2merr.NewCompressionError("tokenize failed", err)
	}

	buf := make([]byte, 0, 1+len(ids)*2)
	buf = append(buf, byte(vocab))
	for _, id := range ids {
		buf = varint.Encode(buf, uint64(id))
	}
	return buf, nil
}

// EncodeString is Encode's text wire form: "#TK|<id_char>|<base64(ids)>".
func EncodeString(text string, vocab Vocab) (string, error) {
	raw, err := Encode(text, vocab)
	if err != nil {
		return "", err
	}
	return Prefix + string(vocab.Char()) + "|" + base64.StdEncoding.EncodeToString(raw[1:]), nil
}

// Decode reverses Encode, detokenizing back to the original text.
func Decode(buf []byte) (string, error) {
	if len(buf) < 1 {
		return "", m2merr.NewDecompressionError("bad tokenizer id", nil)
	}
	vocab, ok := ParseByte(buf[0])
	if !ok {
		return "", m2merr.NewDecompressionError("bad tokenizer id", nil)
	}
	ids, err := decodeVarints(buf[1:])
	if err != nil {
		return "", err
	}
	tok, err := For(vocab)
	if err != nil {
		return "", err
	}
	text, err := tok.Detokenize(ids)
	if err != nil {
		return "", m2merr.NewDecompressionError("detokenize failed", err)
	}
	return text, nil
}

// DecodeString reverses EncodeString.
func DecodeString(s string) (string, error) {
	if !strings.HasPrefix(s, Prefix) {
		return "", m2merr.NewDecompressionError("missing tokenizer wire prefix", nil)
	}
	rest := s[len(Prefix):]
	idx := strings.IndexByte(rest, '|')
	if idx != 1 {
		return "", m2merr.NewDecompressionError("bad tokenizer id", nil)
	}
	vocab, ok := ParseChar(rest[0])
	if !ok {
		return "", m2merr.NewDecompressionError("bad tokenizer id", nil)
	}
	encoded := rest[idx+1:]
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", m2merr.NewDecompressionError("base64 decode failed", err)
	}
	buf := append([]byte{byte(vocab)}, raw...)
	return Decode(buf)
}

// decodeVarints reads VarInt-encoded u32 token ids until buf is exhausted.
func decodeVarints(buf []byte) ([]uint32, error) {
	var ids []uint32
	for len(buf) > 0 {
		v, n, err := varint.Decode(buf)
		if err != nil {
			return nil, m2merr.NewDecompressionError("truncated varint", err)
		}
		ids = append(ids, uint32(v))
		buf = buf[n:]
	}
	return ids, nil
}

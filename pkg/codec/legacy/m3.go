package legacy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/varint"
)

// M3Prefix is the wire prefix of the deprecated schema-positional M3
// codec.
const M3Prefix = "#M3|"

// m3SchemaChatRequest is the only M3 schema byte this decoder understands;
// the other two schemas the original defined (ChatCompletionResponse,
// single ChatMessage) never appear on a wire this module would be asked
// to read back, since nothing in this codebase emits M3 frames of any
// schema.
const m3SchemaChatRequest = 0x01

const (
	m3FlagHasTemperature = 0x01
	m3FlagHasMaxTokens   = 0x02
	m3FlagHasTopP        = 0x04
	m3FlagStream         = 0x08
	m3FlagHasStop        = 0x10
)

var m3Roles = [...]string{"system", "user", "assistant", "tool"}

// IsM3Frame reports whether wire carries the M3 codec's prefix.
func IsM3Frame(wire string) bool {
	return strings.HasPrefix(wire, M3Prefix)
}

// DecodeM3 reverses the M3 codec's positional chat-request encoding back
// to a JSON chat completion request. data is the raw frame bytes,
// including the "#M3|" prefix: M3 payloads are not valid UTF-8 in
// general, so unlike the other two legacy codecs this one takes []byte.
func DecodeM3(data []byte) (string, error) {
	prefix := []byte(M3Prefix)
	if len(data) < len(prefix) || string(data[:len(prefix)]) != M3Prefix {
		return "", m2merr.NewDecompressionError("missing M3 prefix", nil)
	}
	body := data[len(prefix):]

	r := &byteCursor{buf: body}

	schema, err := r.readByte()
	if err != nil {
		return "", m2merr.NewDecompressionError("M3 schema byte", err)
	}
	if schema != m3SchemaChatRequest {
		return "", m2merr.NewDecompressionError(fmt.Sprintf("unsupported M3 schema 0x%02x", schema), nil)
	}

	model, err := r.readString()
	if err != nil {
		return "", m2merr.NewDecompressionError("M3 model field", err)
	}

	flags, err := r.readByte()
	if err != nil {
		return "", m2merr.NewDecompressionError("M3 flags byte", err)
	}

	numMessages, err := r.readVarint()
	if err != nil {
		return "", m2merr.NewDecompressionError("M3 message count", err)
	}

	messages := make([]map[string]any, 0, numMessages)
	for i := uint64(0); i < numMessages; i++ {
		roleByte, err := r.readByte()
		if err != nil {
			return "", m2merr.NewDecompressionError("M3 message role", err)
		}
		if int(roleByte) >= len(m3Roles) {
			return "", m2merr.NewDecompressionError(fmt.Sprintf("invalid M3 role byte %d", roleByte), nil)
		}
		content, err := r.readString()
		if err != nil {
			return "", m2merr.NewDecompressionError("M3 message content", err)
		}
		messages = append(messages, map[string]any{
			"role":    m3Roles[roleByte],
			"content": content,
		})
	}

	req := map[string]any{
		"model":    model,
		"messages": messages,
	}

	if flags&m3FlagHasTemperature != 0 {
		b, err := r.readByte()
		if err != nil {
			return "", m2merr.NewDecompressionError("M3 temperature", err)
		}
		req["temperature"] = float64(b) / 100.0
	}
	if flags&m3FlagHasMaxTokens != 0 {
		v, err := r.readVarint()
		if err != nil {
			return "", m2merr.NewDecompressionError("M3 max_tokens", err)
		}
		req["max_tokens"] = v
	}
	if flags&m3FlagHasTopP != 0 {
		b, err := r.readByte()
		if err != nil {
			return "", m2merr.NewDecompressionError("M3 top_p", err)
		}
		req["top_p"] = float64(b) / 100.0
	}
	if flags&m3FlagStream != 0 {
		req["stream"] = true
	}
	if flags&m3FlagHasStop != 0 {
		numStops, err := r.readVarint()
		if err != nil {
			return "", m2merr.NewDecompressionError("M3 stop count", err)
		}
		stops := make([]string, 0, numStops)
		for i := uint64(0); i < numStops; i++ {
			s, err := r.readString()
			if err != nil {
				return "", m2merr.NewDecompressionError("M3 stop entry", err)
			}
			stops = append(stops, s)
		}
		req["stop"] = stops
	}

	out, err := json.Marshal(req)
	if err != nil {
		return "", m2merr.NewDecompressionError("M3 re-marshal", err)
	}
	return string(out), nil
}

// byteCursor reads length-prefixed fields off an M3 payload in order;
// it has no seek-back, matching the original's single forward Cursor.
type byteCursor struct {
	buf []byte
	pos int
}

func (c *byteCursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, fmt.Errorf("unexpected end of M3 payload")
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *byteCursor) readVarint() (uint64, error) {
	v, n, err := varint.Decode(c.buf[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

func (c *byteCursor) readString() (string, error) {
	n, err := c.readVarint()
	if err != nil {
		return "", err
	}
	if c.pos+int(n) > len(c.buf) {
		return "", fmt.Errorf("unexpected end of M3 payload")
	}
	s := string(c.buf[c.pos : c.pos+int(n)])
	c.pos += int(n)
	return s, nil
}

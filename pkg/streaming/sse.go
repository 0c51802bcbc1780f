// Package streaming implements the SSE key-abbreviation codec (spec
// §4.11): a streaming-aware transform over `data: <json>\n` events that
// shrinks common OpenAI-shaped chat-completion keys and role values,
// leaving `[DONE]` markers and comment lines untouched. Grounded on the
// teacher's SSE parser/writer (pkg/providerutils/streaming/sse.go),
// generalized from opaque event passthrough to a JSON-tree transform.
package streaming

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

const doneMarker = "[DONE]"

// Codec walks SSE chunks, abbreviating or expanding each data event's JSON
// tree, and accumulates any "content" string it sees along the way. A
// Codec is single-owner, matching one stream direction of one session
// (spec §5).
type Codec struct {
	accumulated strings.Builder
}

// NewCodec returns a Codec with no accumulated content yet.
func NewCodec() *Codec { return &Codec{} }

// AccumulatedContent returns every content delta string seen so far,
// concatenated in arrival order (spec §4.11).
func (c *Codec) AccumulatedContent() string { return c.accumulated.String() }

// Compress abbreviates every `data: <json>` event in chunk, passing
// `[DONE]` and comment lines through unchanged. Data events are written
// back as `data: <json>\n\n`; every other non-empty line is written as-is
// followed by a blank line (spec §4.11, §6).
func (c *Codec) Compress(chunk []byte) ([]byte, error) {
	return c.transform(chunk, c.abbreviateEvent)
}

// Decompress reverses Compress: expands every data event's JSON tree back
// to its original keys and role values.
func (c *Codec) Decompress(chunk []byte) ([]byte, error) {
	return c.transform(chunk, c.expandEvent)
}

func (c *Codec) transform(chunk []byte, mapData func(string) (string, error)) ([]byte, error) {
	var out bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(chunk))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ":"):
			out.WriteString(line)
			out.WriteString("\n\n")
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimPrefix(line, "data:")
			data = strings.TrimPrefix(data, " ")
			if data == doneMarker {
				out.WriteString("data: " + doneMarker + "\n\n")
				continue
			}
			mapped, err := mapData(data)
			if err != nil {
				return nil, err
			}
			out.WriteString("data: " + mapped + "\n\n")
		default:
			out.WriteString(line)
			out.WriteString("\n\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, m2merr.NewDecompressionError("sse scan failed", err)
	}
	return out.Bytes(), nil
}

func (c *Codec) abbreviateEvent(data string) (string, error) {
	var tree any
	if err := json.Unmarshal([]byte(data), &tree); err != nil {
		return "", m2merr.NewCompressionError("invalid sse json event", err)
	}
	c.collectContent(tree)
	mapped := walk(tree, abbreviateKey, abbreviateRole)
	out, err := json.Marshal(mapped)
	if err != nil {
		return "", m2merr.NewCompressionError("encode abbreviated sse event", err)
	}
	return string(out), nil
}

func (c *Codec) expandEvent(data string) (string, error) {
	var tree any
	if err := json.Unmarshal([]byte(data), &tree); err != nil {
		return "", m2merr.NewDecompressionError("invalid sse json event", err)
	}
	mapped := walk(tree, expandKey, expandRole)
	c.collectContent(mapped)
	out, err := json.Marshal(mapped)
	if err != nil {
		return "", m2merr.NewDecompressionError("encode expanded sse event", err)
	}
	return string(out), nil
}

// collectContent accumulates every string found under a "content" key,
// matching on the tree's ORIGINAL (un-abbreviated) key names so it works
// the same whether called before abbreviation or after expansion.
func (c *Codec) collectContent(tree any) {
	switch v := tree.(type) {
	case map[string]any:
		for key, val := range v {
			if key == "content" {
				if s, ok := val.(string); ok {
					c.accumulated.WriteString(s)
				}
			}
			c.collectContent(val)
		}
	case []any:
		for _, item := range v {
			c.collectContent(item)
		}
	}
}

// walk recursively rebuilds tree, substituting object keys via mapKey and
// any value stored under a role key (long form "role" before or after
// substitution) via mapRole.
func walk(tree any, mapKey func(string) string, mapRole func(string) string) any {
	switch v := tree.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			newKey := mapKey(key)
			if key == "role" || newKey == "role" {
				if s, ok := val.(string); ok {
					out[newKey] = mapRole(s)
					continue
				}
			}
			out[newKey] = walk(val, mapKey, mapRole)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = walk(item, mapKey, mapRole)
		}
		return out
	default:
		return v
	}
}

// Package header implements the M2M variable headers: RoutingHeader for
// requests/embedding-requests, ResponseHeader for responses/embedding-
// responses, JSON→header extraction, and pricing-driven cost estimation.
// See spec §3/§4.3.
package header

import (
	"fmt"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/wire"
)

// CompressionThreshold is the JSON payload size, in bytes, at or above which
// the M2M frame codec sets the COMPRESSED flag and Brotli-compresses the
// payload. Resolves the §9 open question ("COMPRESSION_THRESHOLD" vs the
// literal 256 in prose) in favor of 256 — see DESIGN.md.
const CompressionThreshold = 256

// MaxStringLen is the maximum encodable length of a 1-byte length-prefixed
// header string (model id, response id).
const MaxStringLen = 255

// RoutingHeader is the variable header for Request/EmbeddingRequest frames.
type RoutingHeader struct {
	Model       string
	MsgCount    uint64
	Roles       []wire.Role
	ContentHint uint64
	MaxTokens   *uint64
	EstCostUSD  *float32
}

// ResponseHeader is the variable header for Response/EmbeddingResponse
// frames.
type ResponseHeader struct {
	ID               string
	Model            string
	FinishReason     wire.FinishReason
	PromptTokens     uint64
	CompletionTokens uint64
	CachedTokens     *uint64
	ReasoningTokens  *uint64
	EstCostUSD       *float32
}

// ExtractRoutingHeader builds a RoutingHeader from a parsed chat/embedding
// request JSON object, per spec §4.3(a).
func ExtractRoutingHeader(raw map[string]any, flags wire.Flags) (RoutingHeader, error) {
	model, _ := raw["model"].(string)
	if len(model) > MaxStringLen {
		return RoutingHeader{}, m2merr.NewCompressionError(fmt.Sprintf("model name exceeds %d bytes", MaxStringLen), nil)
	}

	rh := RoutingHeader{Model: model}

	messages, _ := raw["messages"].([]any)
	rh.MsgCount = uint64(len(messages))

	var contentHint uint64
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		if role, ok := msg["role"].(string); ok {
			if r, ok := wire.ParseRole(role); ok {
				rh.Roles = append(rh.Roles, r)
			}
		}
		contentHint += contentByteLen(msg["content"])
	}
	rh.ContentHint = contentHint

	if flags.HasRequest(wire.HasMaxTokens) {
		mt, ok := numericField(raw, "max_tokens")
		if !ok {
			mt, ok = numericField(raw, "max_completion_tokens")
		}
		if ok {
			rh.MaxTokens = &mt
		}
	}

	return rh, nil
}

// contentByteLen sums the byte length of string content, or of "text"
// sub-parts when content is a parts array, per spec's content_hint
// definition.
func contentByteLen(content any) uint64 {
	switch v := content.(type) {
	case string:
		return uint64(len(v))
	case []any:
		var total uint64
		for _, p := range v {
			part, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok {
				total += uint64(len(text))
			}
		}
		return total
	default:
		return 0
	}
}

func numericField(raw map[string]any, key string) (uint64, bool) {
	n, ok := raw[key].(float64)
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}

// ExtractResponseHeader builds a ResponseHeader from a parsed chat
// completion response JSON object, per spec §4.3(b).
func ExtractResponseHeader(raw map[string]any, flags wire.Flags) (ResponseHeader, error) {
	id, _ := raw["id"].(string)
	model, _ := raw["model"].(string)
	if len(id) > MaxStringLen || len(model) > MaxStringLen {
		return ResponseHeader{}, m2merr.NewCompressionError(fmt.Sprintf("id/model exceeds %d bytes", MaxStringLen), nil)
	}

	choice := firstChoice(raw)
	if choice == nil {
		return ResponseHeader{}, m2merr.NewDecompressionError("missing finish reason", nil)
	}
	finishStr, ok := choice["finish_reason"].(string)
	if !ok || finishStr == "" {
		return ResponseHeader{}, m2merr.NewDecompressionError("missing finish reason", nil)
	}

	rh := ResponseHeader{
		ID:           id,
		Model:        model,
		FinishReason: wire.ParseFinishReason(finishStr),
	}

	usage, _ := raw["usage"].(map[string]any)
	if promptTokens, ok := usage["prompt_tokens"].(float64); ok {
		rh.PromptTokens = uint64(promptTokens)
	}
	if completionTokens, ok := usage["completion_tokens"].(float64); ok {
		rh.CompletionTokens = uint64(completionTokens)
	}

	if flags.HasResponse(wire.HasCachedTokens) {
		if n, ok := positiveUint(usage, "prompt_tokens_details", "cached_tokens"); ok {
			rh.CachedTokens = &n
		}
	}
	if flags.HasResponse(wire.HasReasoningTokens) {
		if n, ok := positiveUint(usage, "completion_tokens_details", "reasoning_tokens"); ok {
			rh.ReasoningTokens = &n
		}
	}

	return rh, nil
}

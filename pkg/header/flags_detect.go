package header

import (
	"github.com/infernet-m2m/m2m-core/pkg/wire"
)

// DetectRequestFlags walks a parsed chat/embedding request JSON object and
// returns the RequestFlag bits that apply, per spec §4.3(c).
func DetectRequestFlags(raw map[string]any) wire.Flags {
	var f wire.Flags

	if messages, ok := raw["messages"].([]any); ok {
		for _, m := range messages {
			msg, ok := m.(map[string]any)
			if !ok {
				continue
			}
			if role, _ := msg["role"].(string); role == "system" || role == "developer" {
				f = f.SetRequest(wire.HasSystemPrompt)
			}
			if hasImagePart(msg["content"]) {
				f = f.SetRequest(wire.HasImages)
			}
		}
	}

	if _, ok := raw["tools"]; ok {
		f = f.SetRequest(wire.HasTools)
	}
	if _, ok := raw["tool_choice"]; ok {
		f = f.SetRequest(wire.HasToolChoice)
	}
	if stream, ok := raw["stream"].(bool); ok && stream {
		f = f.SetRequest(wire.StreamRequested)
	}
	if _, ok := raw["response_format"]; ok {
		f = f.SetRequest(wire.HasResponseFormat)
	}
	if _, ok := raw["max_tokens"]; ok {
		f = f.SetRequest(wire.HasMaxTokens)
	} else if _, ok := raw["max_completion_tokens"]; ok {
		f = f.SetRequest(wire.HasMaxTokens)
	}
	if _, ok := raw["reasoning_effort"]; ok {
		f = f.SetRequest(wire.HasReasoningEffort)
	}
	if _, ok := raw["service_tier"]; ok {
		f = f.SetRequest(wire.HasServiceTier)
	}
	if _, ok := raw["seed"]; ok {
		f = f.SetRequest(wire.HasSeed)
	}
	if _, ok := raw["logprobs"]; ok {
		f = f.SetRequest(wire.HasLogprobs)
	}
	if _, ok := raw["user"]; ok {
		f = f.SetRequest(wire.HasUserID)
	}
	if _, ok := raw["temperature"]; ok {
		f = f.SetRequest(wire.HasTemperature)
	}
	if _, ok := raw["top_p"]; ok {
		f = f.SetRequest(wire.HasTopP)
	}
	if _, ok := raw["stop"]; ok {
		f = f.SetRequest(wire.HasStop)
	}

	return f
}

// hasImagePart reports whether a message's content field is a parts array
// containing an element with type == "image_url".
func hasImagePart(content any) bool {
	parts, ok := content.([]any)
	if !ok {
		return false
	}
	for _, p := range parts {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := part["type"].(string); t == "image_url" {
			return true
		}
	}
	return false
}

// DetectResponseFlags walks a parsed chat completion response JSON object
// and returns the ResponseFlag bits that apply, per spec §4.3(c).
func DetectResponseFlags(raw map[string]any) wire.Flags {
	var f wire.Flags

	choice := firstChoice(raw)
	if choice != nil {
		if message, ok := choice["message"].(map[string]any); ok {
			if _, ok := message["tool_calls"]; ok {
				f = f.SetResponse(wire.HasToolCalls)
			}
			if refusal, ok := message["refusal"].(string); ok && refusal != "" {
				f = f.SetResponse(wire.HasRefusal)
			}
		}
		if reason, ok := choice["finish_reason"].(string); ok {
			switch reason {
			case "content_filter":
				f = f.SetResponse(wire.ContentFiltered)
			case "length":
				f = f.SetResponse(wire.Truncated)
			}
		}
	}

	usage, ok := raw["usage"].(map[string]any)
	if ok {
		f = f.SetResponse(wire.HasUsage)
		if n, ok := positiveUint(usage, "prompt_tokens_details", "cached_tokens"); ok && n > 0 {
			f = f.SetResponse(wire.HasCachedTokens)
		}
		if n, ok := positiveUint(usage, "completion_tokens_details", "reasoning_tokens"); ok && n > 0 {
			f = f.SetResponse(wire.HasReasoningTokens)
		}
	}

	return f
}

func firstChoice(raw map[string]any) map[string]any {
	choices, ok := raw["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil
	}
	choice, _ := choices[0].(map[string]any)
	return choice
}

func positiveUint(obj map[string]any, nestedKey, field string) (uint64, bool) {
	nested, ok := obj[nestedKey].(map[string]any)
	if !ok {
		return 0, false
	}
	n, ok := nested[field].(float64)
	if !ok {
		return 0, false
	}
	return uint64(n), true
}

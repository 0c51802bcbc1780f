package legacy

import (
	"encoding/json"
	"strings"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// TokenPrefix is the wire prefix of the deprecated key-abbreviation Token
// codec.
const TokenPrefix = "#T1|"

// IsTokenFrame reports whether wire carries the Token codec's prefix.
func IsTokenFrame(wire string) bool {
	return strings.HasPrefix(wire, TokenPrefix)
}

// DecodeToken reverses the Token codec's structural compression: expand
// abbreviated keys, role values, and model-name values back to their full
// form, then restore the LLM-request default parameters the encoder
// omitted (temperature, top_p, n, stream, frequency_penalty,
// presence_penalty).
func DecodeToken(wire string) (string, error) {
	jsonText := strings.TrimPrefix(wire, TokenPrefix)

	var tree any
	if err := json.Unmarshal([]byte(jsonText), &tree); err != nil {
		return "", m2merr.NewDecompressionError("invalid token-codec JSON", err)
	}

	expanded := expandTokenTree(tree, "")
	restored := restoreLLMDefaults(expanded)

	out, err := json.Marshal(restored)
	if err != nil {
		return "", m2merr.NewDecompressionError("re-marshal after token expansion", err)
	}
	return string(out), nil
}

func expandTokenTree(value any, parentKey string) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			fullKey := key
			if full, ok := keyExpand[key]; ok {
				fullKey = full
			}
			result[fullKey] = expandTokenTree(val, fullKey)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = expandTokenTree(item, parentKey)
		}
		return result
	case string:
		switch parentKey {
		case "role":
			if full, ok := roleExpand[v]; ok {
				return full
			}
		case "model":
			if full, ok := modelExpand[v]; ok {
				return full
			}
		}
		return v
	default:
		return v
	}
}

// restoreLLMDefaults re-inserts the default request parameters the Token
// codec's encoder drops to save bytes, per spec §5.3.5: only objects that
// look like an LLM request (carry "messages" or "model") get them back.
func restoreLLMDefaults(value any) any {
	switch v := value.(type) {
	case map[string]any:
		_, hasMessages := v["messages"]
		_, hasModel := v["model"]
		if hasMessages || hasModel {
			result := make(map[string]any, len(v)+6)
			for k, val := range v {
				result[k] = val
			}
			setDefault(result, "temperature", 1.0)
			setDefault(result, "top_p", 1.0)
			setDefault(result, "n", 1.0)
			setDefault(result, "stream", false)
			setDefault(result, "frequency_penalty", 0.0)
			setDefault(result, "presence_penalty", 0.0)
			return result
		}
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = restoreLLMDefaults(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = restoreLLMDefaults(item)
		}
		return result
	default:
		return v
	}
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

package header

import "github.com/infernet-m2m/m2m-core/pkg/wire"

// DetectSchema guesses which FixedHeader.Schema a parsed JSON object
// corresponds to, so the codec engine can pick an M2M frame schema for
// arbitrary chat/embedding payloads without the caller naming one
// explicitly. Unrecognized shapes map to SchemaUnknown, which carries no
// variable header.
func DetectSchema(raw map[string]any) wire.Schema {
	switch {
	case hasKey(raw, "choices"):
		return wire.SchemaResponse
	case hasKey(raw, "messages"):
		return wire.SchemaRequest
	case hasKey(raw, "data") && hasKey(raw, "object"):
		return wire.SchemaEmbeddingResp
	case hasKey(raw, "input"):
		return wire.SchemaEmbeddingReq
	default:
		return wire.SchemaUnknown
	}
}

func hasKey(raw map[string]any, key string) bool {
	_, ok := raw[key]
	return ok
}

// Package wire defines the small closed vocabularies and the 20-byte fixed
// header that every M2M frame carries: schema tags, roles, security modes,
// finish reasons, and the packed flag bitfields extracted from the
// underlying chat/embedding JSON.
package wire

import "fmt"

// Schema identifies the shape of the variable header that follows the fixed
// header in an M2M frame.
type Schema byte

const (
	SchemaRequest       Schema = 0x01
	SchemaResponse      Schema = 0x02
	SchemaStream        Schema = 0x03
	SchemaEmbeddingReq  Schema = 0x04
	SchemaEmbeddingResp Schema = 0x05
	SchemaError         Schema = 0x10
	SchemaCustom        Schema = 0xFE
	SchemaUnknown       Schema = 0xFF
)

func (s Schema) String() string {
	switch s {
	case SchemaRequest:
		return "request"
	case SchemaResponse:
		return "response"
	case SchemaStream:
		return "stream"
	case SchemaEmbeddingReq:
		return "embedding_request"
	case SchemaEmbeddingResp:
		return "embedding_response"
	case SchemaError:
		return "error"
	case SchemaCustom:
		return "custom"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(s))
	}
}

// HasVariableHeader reports whether this schema carries a Routing or
// Response variable header. Custom and Unknown schemas carry none.
func (s Schema) HasVariableHeader() bool {
	switch s {
	case SchemaRequest, SchemaEmbeddingReq, SchemaResponse, SchemaEmbeddingResp:
		return true
	default:
		return false
	}
}

// IsRequestLike reports whether s uses the RoutingHeader layout.
func (s Schema) IsRequestLike() bool {
	return s == SchemaRequest || s == SchemaEmbeddingReq
}

// IsResponseLike reports whether s uses the ResponseHeader layout.
func (s Schema) IsResponseLike() bool {
	return s == SchemaResponse || s == SchemaEmbeddingResp
}

// Role is the 2-bit role tag packed into a RoutingHeader's role sequence.
type Role byte

const (
	RoleSystem    Role = 0
	RoleUser      Role = 1
	RoleAssistant Role = 2
	RoleTool      Role = 3
)

// ParseRole maps a chat message's "role" string to a Role. "developer" is
// synonymous with "system" per spec. Unknown roles return ok=false so the
// caller can skip the message rather than padding the roles sequence.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "system", "developer":
		return RoleSystem, true
	case "user":
		return RoleUser, true
	case "assistant":
		return RoleAssistant, true
	case "tool":
		return RoleTool, true
	default:
		return 0, false
	}
}

func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	case RoleTool:
		return "tool"
	default:
		return fmt.Sprintf("unknown(%d)", byte(r))
	}
}

// SecurityMode identifies how an M2M frame is sealed.
type SecurityMode byte

const (
	SecurityNone SecurityMode = 0
	SecurityHMAC SecurityMode = 1
	SecurityAEAD SecurityMode = 2
)

func (m SecurityMode) String() string {
	switch m {
	case SecurityNone:
		return "none"
	case SecurityHMAC:
		return "hmac"
	case SecurityAEAD:
		return "aead"
	default:
		return fmt.Sprintf("unknown(%d)", byte(m))
	}
}

// FinishReason is the normalized completion-stop reason carried in a
// ResponseHeader.
type FinishReason byte

const (
	FinishStop          FinishReason = 0
	FinishLength        FinishReason = 1
	FinishToolCalls     FinishReason = 2
	FinishContentFilter FinishReason = 3
	FinishUnknown       FinishReason = 0xFF
)

// ParseFinishReason maps an OpenAI-compatible finish_reason string to a
// FinishReason.
func ParseFinishReason(s string) FinishReason {
	switch s {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	case "tool_calls", "function_call":
		return FinishToolCalls
	case "content_filter":
		return FinishContentFilter
	default:
		return FinishUnknown
	}
}

func (f FinishReason) String() string {
	switch f {
	case FinishStop:
		return "stop"
	case FinishLength:
		return "length"
	case FinishToolCalls:
		return "tool_calls"
	case FinishContentFilter:
		return "content_filter"
	default:
		return "unknown"
	}
}

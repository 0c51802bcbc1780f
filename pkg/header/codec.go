package header

import (
	"math"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/varint"
	"github.com/infernet-m2m/m2m-core/pkg/wire"
)

// packRoles bit-packs roles 2 bits per role, little-endian within each
// byte, rounded up to a whole number of bytes.
func packRoles(roles []wire.Role) []byte {
	out := make([]byte, (len(roles)*2+7)/8)
	for i, r := range roles {
		byteIdx := i / 4
		shift := uint(i%4) * 2
		out[byteIdx] |= byte(r) << shift
	}
	return out
}

// unpackRoles reverses packRoles given the number of roles expected.
func unpackRoles(buf []byte, count int) []wire.Role {
	roles := make([]wire.Role, count)
	for i := range roles {
		byteIdx := i / 4
		shift := uint(i%4) * 2
		roles[i] = wire.Role((buf[byteIdx] >> shift) & 0x3)
	}
	return roles
}

// EncodeRoutingHeader serializes a RoutingHeader. The number of parsed
// roles is written explicitly (as its own VarInt) ahead of the packed role
// bits, since roles may be fewer than MsgCount when unknown roles were
// skipped during extraction (spec §4.3(a)) — see DESIGN.md for why this
// extra length field is necessary for an unambiguous binary decode.
func EncodeRoutingHeader(rh RoutingHeader, flags wire.Flags) ([]byte, error) {
	if len(rh.Model) > MaxStringLen {
		return nil, m2merr.NewCompressionError("model name exceeds 255 bytes", nil)
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, byte(len(rh.Model)))
	buf = append(buf, rh.Model...)
	buf = varint.Encode(buf, rh.MsgCount)
	buf = varint.Encode(buf, uint64(len(rh.Roles)))
	buf = append(buf, packRoles(rh.Roles)...)
	buf = varint.Encode(buf, rh.ContentHint)

	if flags.HasRequest(wire.HasMaxTokens) {
		if rh.MaxTokens == nil {
			return nil, m2merr.NewCompressionError("HAS_MAX_TOKENS set but MaxTokens is nil", nil)
		}
		buf = varint.Encode(buf, *rh.MaxTokens)
	}

	if rh.EstCostUSD != nil {
		buf = appendFloat32(buf, *rh.EstCostUSD)
	}

	return buf, nil
}

// DecodeRoutingHeader parses a RoutingHeader from buf, which must contain
// exactly the variable-header bytes (no trailing payload bytes).
func DecodeRoutingHeader(buf []byte, flags wire.Flags) (RoutingHeader, error) {
	if len(buf) < 1 {
		return RoutingHeader{}, m2merr.NewDecompressionError("routing header truncated", nil)
	}
	modelLen := int(buf[0])
	buf = buf[1:]
	if len(buf) < modelLen {
		return RoutingHeader{}, m2merr.NewDecompressionError("model truncated", nil)
	}
	model := string(buf[:modelLen])
	buf = buf[modelLen:]

	msgCount, n, err := varint.Decode(buf)
	if err != nil {
		return RoutingHeader{}, m2merr.NewDecompressionError("msg_count truncated", err)
	}
	buf = buf[n:]

	roleCount, n, err := varint.Decode(buf)
	if err != nil {
		return RoutingHeader{}, m2merr.NewDecompressionError("role count truncated", err)
	}
	buf = buf[n:]

	roleBytes := (int(roleCount)*2 + 7) / 8
	if len(buf) < roleBytes {
		return RoutingHeader{}, m2merr.NewDecompressionError("invalid role", nil)
	}
	roles := unpackRoles(buf[:roleBytes], int(roleCount))
	buf = buf[roleBytes:]

	contentHint, n, err := varint.Decode(buf)
	if err != nil {
		return RoutingHeader{}, m2merr.NewDecompressionError("content_hint truncated", err)
	}
	buf = buf[n:]

	rh := RoutingHeader{Model: model, MsgCount: msgCount, Roles: roles, ContentHint: contentHint}

	if flags.HasRequest(wire.HasMaxTokens) {
		mt, n, err := varint.Decode(buf)
		if err != nil {
			return RoutingHeader{}, m2merr.NewDecompressionError("max_tokens truncated", err)
		}
		buf = buf[n:]
		rh.MaxTokens = &mt
	}

	if len(buf) >= 4 {
		cost := readFloat32(buf[:4])
		rh.EstCostUSD = &cost
	}

	return rh, nil
}

// EncodeResponseHeader serializes a ResponseHeader.
func EncodeResponseHeader(rh ResponseHeader, flags wire.Flags) ([]byte, error) {
	if len(rh.ID) > MaxStringLen || len(rh.Model) > MaxStringLen {
		return nil, m2merr.NewCompressionError("id/model exceeds 255 bytes", nil)
	}

	buf := make([]byte, 0, 64)
	buf = append(buf, byte(len(rh.ID)))
	buf = append(buf, rh.ID...)
	buf = append(buf, byte(len(rh.Model)))
	buf = append(buf, rh.Model...)
	buf = append(buf, byte(rh.FinishReason))
	buf = varint.Encode(buf, rh.PromptTokens)
	buf = varint.Encode(buf, rh.CompletionTokens)

	if flags.HasResponse(wire.HasCachedTokens) {
		if rh.CachedTokens == nil {
			return nil, m2merr.NewCompressionError("HAS_CACHED_TOKENS set but CachedTokens is nil", nil)
		}
		buf = varint.Encode(buf, *rh.CachedTokens)
	}
	if flags.HasResponse(wire.HasReasoningTokens) {
		if rh.ReasoningTokens == nil {
			return nil, m2merr.NewCompressionError("HAS_REASONING_TOKENS set but ReasoningTokens is nil", nil)
		}
		buf = varint.Encode(buf, *rh.ReasoningTokens)
	}
	if flags.HasResponse(wire.HasCostEstimate) {
		if rh.EstCostUSD == nil {
			return nil, m2merr.NewCompressionError("HAS_COST_ESTIMATE set but EstCostUSD is nil", nil)
		}
		buf = appendFloat32(buf, *rh.EstCostUSD)
	}

	return buf, nil
}

// DecodeResponseHeader parses a ResponseHeader from buf, which must contain
// exactly the variable-header bytes.
func DecodeResponseHeader(buf []byte, flags wire.Flags) (ResponseHeader, error) {
	if len(buf) < 1 {
		return ResponseHeader{}, m2merr.NewDecompressionError("response header truncated", nil)
	}
	idLen := int(buf[0])
	buf = buf[1:]
	if len(buf) < idLen {
		return ResponseHeader{}, m2merr.NewDecompressionError("id truncated", nil)
	}
	id := string(buf[:idLen])
	buf = buf[idLen:]

	if len(buf) < 1 {
		return ResponseHeader{}, m2merr.NewDecompressionError("response header truncated", nil)
	}
	modelLen := int(buf[0])
	buf = buf[1:]
	if len(buf) < modelLen {
		return ResponseHeader{}, m2merr.NewDecompressionError("model truncated", nil)
	}
	model := string(buf[:modelLen])
	buf = buf[modelLen:]

	if len(buf) < 1 {
		return ResponseHeader{}, m2merr.NewDecompressionError("missing finish reason", nil)
	}
	finish := wire.FinishReason(buf[0])
	buf = buf[1:]

	promptTokens, n, err := varint.Decode(buf)
	if err != nil {
		return ResponseHeader{}, m2merr.NewDecompressionError("prompt_tokens truncated", err)
	}
	buf = buf[n:]

	completionTokens, n, err := varint.Decode(buf)
	if err != nil {
		return ResponseHeader{}, m2merr.NewDecompressionError("completion_tokens truncated", err)
	}
	buf = buf[n:]

	rh := ResponseHeader{ID: id, Model: model, FinishReason: finish, PromptTokens: promptTokens, CompletionTokens: completionTokens}

	if flags.HasResponse(wire.HasCachedTokens) {
		v, n, err := varint.Decode(buf)
		if err != nil {
			return ResponseHeader{}, m2merr.NewDecompressionError("cached_tokens truncated", err)
		}
		buf = buf[n:]
		rh.CachedTokens = &v
	}
	if flags.HasResponse(wire.HasReasoningTokens) {
		v, n, err := varint.Decode(buf)
		if err != nil {
			return ResponseHeader{}, m2merr.NewDecompressionError("reasoning_tokens truncated", err)
		}
		buf = buf[n:]
		rh.ReasoningTokens = &v
	}
	if flags.HasResponse(wire.HasCostEstimate) {
		if len(buf) < 4 {
			return ResponseHeader{}, m2merr.NewDecompressionError("est_cost_usd truncated", nil)
		}
		cost := readFloat32(buf[:4])
		rh.EstCostUSD = &cost
	}

	return rh, nil
}

func appendFloat32(buf []byte, f float32) []byte {
	bits := math.Float32bits(f)
	return append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
}

func readFloat32(buf []byte) float32 {
	bits := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	return math.Float32frombits(bits)
}

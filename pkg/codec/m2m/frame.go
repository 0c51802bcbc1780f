// Package m2m implements the M2M binary frame codec (spec §4.4), the core
// artifact of the multi-codec engine: a schema-tagged fixed header, a
// schema-dependent routing/response header, and a CRC32-checked,
// optionally Brotli-compressed payload block, wrapped in an ASCII prefix.
// It also implements the HMAC and AEAD secure variants.
package m2m

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/infernet-m2m/m2m-core/pkg/aead"
	"github.com/infernet-m2m/m2m-core/pkg/brotli"
	"github.com/infernet-m2m/m2m-core/pkg/header"
	"github.com/infernet-m2m/m2m-core/pkg/integrity"
	"github.com/infernet-m2m/m2m-core/pkg/keys"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/wire"
)

// Prefix is the ASCII wire prefix every M2M frame begins with; everything
// after it is binary (or, for the string wire form, base64).
const Prefix = "#M2M|1|"

// Frame is the decoded in-memory form of an M2M binary frame.
type Frame struct {
	Fixed    wire.FixedHeader
	Routing  *header.RoutingHeader
	Response *header.ResponseHeader
	Payload  string
	Checksum uint32
}

// Encode builds a plain (SecurityMode = None) M2M frame for jsonText under
// schema. pricing may be nil to skip cost estimation.
func Encode(jsonText string, schema wire.Schema, pricing header.PricingTable) ([]byte, error) {
	fixed, varHeader, payloadBlock, err := assemble(jsonText, schema, pricing, wire.SecurityNone)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(Prefix)+int(fixed.HeaderLen)+len(payloadBlock))
	buf = append(buf, Prefix...)
	buf = append(buf, fixed.Encode()...)
	buf = append(buf, varHeader...)
	buf = append(buf, payloadBlock...)
	return buf, nil
}

// EncodeString is Encode's text wire form: everything after Prefix is
// base64-encoded.
func EncodeString(jsonText string, schema wire.Schema, pricing header.PricingTable) (string, error) {
	raw, err := Encode(jsonText, schema, pricing)
	if err != nil {
		return "", err
	}
	return Prefix + base64.StdEncoding.EncodeToString(raw[len(Prefix):]), nil
}

// EncodeSecureHMAC builds an HMAC-sealed M2M frame: the plain frame is
// assembled with security = HMAC, then HMAC_SHA256(key, frame-after-prefix)
// is appended as a trailing 32-byte tag.
func EncodeSecureHMAC(jsonText string, schema wire.Schema, pricing header.PricingTable, key *keys.Material) ([]byte, error) {
	fixed, varHeader, payloadBlock, err := assemble(jsonText, schema, pricing, wire.SecurityHMAC)
	if err != nil {
		return nil, err
	}
	body := make([]byte, 0, int(fixed.HeaderLen)+len(payloadBlock))
	body = append(body, fixed.Encode()...)
	body = append(body, varHeader...)
	body = append(body, payloadBlock...)

	tag := aead.ComputeTag(key, body)

	buf := make([]byte, 0, len(Prefix)+len(body)+len(tag))
	buf = append(buf, Prefix...)
	buf = append(buf, body...)
	buf = append(buf, tag...)
	return buf, nil
}

// EncodeSecureAEAD builds an AEAD-sealed M2M frame: the fixed + variable
// header (security = AEAD) is the associated data; the payload block
// (payload_len || crc || payload_bytes) is sealed as
// nonce || ciphertext || tag.
func EncodeSecureAEAD(jsonText string, schema wire.Schema, pricing header.PricingTable, ctx *aead.SecurityContext) ([]byte, error) {
	fixed, varHeader, payloadBlock, err := assemble(jsonText, schema, pricing, wire.SecurityAEAD)
	if err != nil {
		return nil, err
	}
	aad := make([]byte, 0, int(fixed.HeaderLen))
	aad = append(aad, fixed.Encode()...)
	aad = append(aad, varHeader...)

	sealed, err := aead.Seal(ctx, payloadBlock, aad)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, len(Prefix)+len(aad)+len(sealed))
	buf = append(buf, Prefix...)
	buf = append(buf, aad...)
	buf = append(buf, sealed...)
	return buf, nil
}

// assemble parses jsonText, builds the schema-dependent variable header,
// computes the CRC32 over the uncompressed JSON, Brotli-compresses the
// payload when its size is at or above header.CompressionThreshold, and
// returns the fixed header (with header_len and flags set), the encoded
// variable header bytes, and the plain payload_len||crc||payload block.
func assemble(jsonText string, schema wire.Schema, pricing header.PricingTable, security wire.SecurityMode) (wire.FixedHeader, []byte, []byte, error) {
	raw, err := parseJSONObject(jsonText)
	if err != nil {
		return wire.FixedHeader{}, nil, nil, m2merr.NewCompressionError("invalid JSON", err)
	}

	flags, varHeader, err := buildVariableHeader(raw, schema, pricing)
	if err != nil {
		return wire.FixedHeader{}, nil, nil, err
	}

	payload := []byte(jsonText)
	checksum := integrity.Checksum(payload)

	payloadBytes := payload
	if len(payload) >= header.CompressionThreshold {
		flags = flags.SetCommon(wire.Compressed)
		payloadBytes, err = brotli.Compress(payload)
		if err != nil {
			return wire.FixedHeader{}, nil, nil, m2merr.NewCompressionError("brotli compress failed", err)
		}
	}

	fixed := wire.FixedHeader{
		HeaderLen: uint16(wire.FixedHeaderSize + len(varHeader)),
		Schema:    schema,
		Security:  security,
		Flags:     flags,
	}

	block := make([]byte, 0, 8+len(payloadBytes))
	block = appendUint32(block, uint32(len(payloadBytes)))
	block = appendUint32(block, checksum)
	block = append(block, payloadBytes...)

	return fixed, varHeader, block, nil
}

// buildVariableHeader detects flags and builds/encodes the RoutingHeader or
// ResponseHeader appropriate to schema, or returns an empty header for
// Custom/Unknown schemas.
func buildVariableHeader(raw map[string]any, schema wire.Schema, pricing header.PricingTable) (wire.Flags, []byte, error) {
	switch {
	case schema.IsRequestLike():
		flags := header.DetectRequestFlags(raw)
		rh, err := header.ExtractRoutingHeader(raw, flags)
		if err != nil {
			return 0, nil, err
		}
		if pricing != nil {
			rh.EstCostUSD = header.EstimateRequestCost(rh.Model, pricing, rh.ContentHint, rh.MaxTokens)
		}
		buf, err := header.EncodeRoutingHeader(rh, flags)
		if err != nil {
			return 0, nil, err
		}
		return flags, buf, nil

	case schema.IsResponseLike():
		flags := header.DetectResponseFlags(raw)
		rh, err := header.ExtractResponseHeader(raw, flags)
		if err != nil {
			return 0, nil, err
		}
		if pricing != nil {
			if cost := header.EstimateResponseCost(rh.Model, pricing, rh.PromptTokens, rh.CompletionTokens); cost != nil {
				rh.EstCostUSD = cost
				flags = flags.SetResponse(wire.HasCostEstimate)
			}
		}
		buf, err := header.EncodeResponseHeader(rh, flags)
		if err != nil {
			return 0, nil, err
		}
		return flags, buf, nil

	default:
		return 0, nil, nil
	}
}

// Decode parses a plain (SecurityMode = None) M2M frame.
func Decode(buf []byte) (*Frame, error) {
	rest, err := stripPrefix(buf)
	if err != nil {
		return nil, err
	}
	fixed, varHeader, body, err := splitFrame(rest)
	if err != nil {
		return nil, err
	}
	if fixed.Security != wire.SecurityNone {
		return nil, m2merr.NewDecompressionError("frame requires secure decode", nil)
	}
	frame := &Frame{Fixed: fixed}
	if err := decodeVariableHeader(frame, varHeader); err != nil {
		return nil, err
	}
	payload, checksum, err := decodePayloadBlock(body, fixed.Flags)
	if err != nil {
		return nil, err
	}
	frame.Payload = string(payload)
	frame.Checksum = checksum
	return frame, nil
}

// DecodeString reverses EncodeString.
func DecodeString(s string) (*Frame, error) {
	raw, err := stringToBinary(s)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// DecodeSecureHMAC verifies and decodes an HMAC-sealed frame built by
// EncodeSecureHMAC.
func DecodeSecureHMAC(buf []byte, key *keys.Material) (*Frame, error) {
	rest, err := stripPrefix(buf)
	if err != nil {
		return nil, err
	}
	if len(rest) < aead.TagLen {
		return nil, m2merr.NewDecompressionError("hmac tag truncated", nil)
	}
	body, tag := rest[:len(rest)-aead.TagLen], rest[len(rest)-aead.TagLen:]

	if err := aead.VerifyTag(key, body, tag); err != nil {
		return nil, err
	}

	fixed, varHeader, block, err := splitFrame(body)
	if err != nil {
		return nil, err
	}
	if fixed.Security != wire.SecurityHMAC {
		return nil, m2merr.NewDecompressionError("security byte does not match hmac seal", nil)
	}
	frame := &Frame{Fixed: fixed}
	if err := decodeVariableHeader(frame, varHeader); err != nil {
		return nil, err
	}
	payload, checksum, err := decodePayloadBlock(block, fixed.Flags)
	if err != nil {
		return nil, err
	}
	frame.Payload = string(payload)
	frame.Checksum = checksum
	return frame, nil
}

// DecodeSecureAEAD verifies and decodes an AEAD-sealed frame built by
// EncodeSecureAEAD.
func DecodeSecureAEAD(buf []byte, key *keys.Material) (*Frame, error) {
	rest, err := stripPrefix(buf)
	if err != nil {
		return nil, err
	}
	fixed, err := wire.DecodeFixedHeader(rest)
	if err != nil {
		return nil, err
	}
	if fixed.Security != wire.SecurityAEAD {
		return nil, m2merr.NewDecompressionError("security byte does not match aead seal", nil)
	}
	if int(fixed.HeaderLen) > len(rest) {
		return nil, m2merr.NewDecompressionError("header_len exceeds frame", nil)
	}
	aad := rest[:fixed.HeaderLen]
	varHeader := rest[wire.FixedHeaderSize:fixed.HeaderLen]
	sealed := rest[fixed.HeaderLen:]

	block, err := aead.Open(key, sealed, aad)
	if err != nil {
		return nil, err
	}

	frame := &Frame{Fixed: fixed}
	if err := decodeVariableHeader(frame, varHeader); err != nil {
		return nil, err
	}
	payload, checksum, err := decodePayloadBlock(block, fixed.Flags)
	if err != nil {
		return nil, err
	}
	frame.Payload = string(payload)
	frame.Checksum = checksum
	return frame, nil
}

func decodeVariableHeader(frame *Frame, varHeader []byte) error {
	switch {
	case frame.Fixed.Schema.IsRequestLike():
		rh, err := header.DecodeRoutingHeader(varHeader, frame.Fixed.Flags)
		if err != nil {
			return err
		}
		frame.Routing = &rh
	case frame.Fixed.Schema.IsResponseLike():
		rh, err := header.DecodeResponseHeader(varHeader, frame.Fixed.Flags)
		if err != nil {
			return err
		}
		frame.Response = &rh
	}
	return nil
}

func stripPrefix(buf []byte) ([]byte, error) {
	if !bytes.HasPrefix(buf, []byte(Prefix)) {
		return nil, m2merr.NewDecompressionError("missing m2m wire prefix", nil)
	}
	return buf[len(Prefix):], nil
}

func stringToBinary(s string) ([]byte, error) {
	if len(s) < len(Prefix) || s[:len(Prefix)] != Prefix {
		return nil, m2merr.NewDecompressionError("missing m2m wire prefix", nil)
	}
	decoded, err := base64.StdEncoding.DecodeString(s[len(Prefix):])
	if err != nil {
		return nil, m2merr.NewDecompressionError("base64 decode failed", err)
	}
	return append([]byte(Prefix), decoded...), nil
}

// splitFrame reads the fixed header from rest (the bytes after Prefix) and
// returns it along with the variable-header slice and everything after it.
func splitFrame(rest []byte) (wire.FixedHeader, []byte, []byte, error) {
	fixed, err := wire.DecodeFixedHeader(rest)
	if err != nil {
		return wire.FixedHeader{}, nil, nil, err
	}
	if int(fixed.HeaderLen) > len(rest) {
		return wire.FixedHeader{}, nil, nil, m2merr.NewDecompressionError("header_len exceeds frame", nil)
	}
	varHeader := rest[wire.FixedHeaderSize:fixed.HeaderLen]
	body := rest[fixed.HeaderLen:]
	return fixed, varHeader, body, nil
}

// decodePayloadBlock reads payload_len||crc||payload_bytes from body,
// Brotli-decompresses if the Compressed flag is set, verifies the CRC32
// against the decompressed bytes, and checks UTF-8 validity.
func decodePayloadBlock(body []byte, flags wire.Flags) ([]byte, uint32, error) {
	if len(body) < 8 {
		return nil, 0, m2merr.NewDecompressionError("payload block truncated", nil)
	}
	payloadLen := binary.LittleEndian.Uint32(body[0:4])
	crc := binary.LittleEndian.Uint32(body[4:8])
	body = body[8:]
	if uint64(len(body)) < uint64(payloadLen) {
		return nil, 0, m2merr.NewDecompressionError("payload truncated", nil)
	}
	payloadBytes := body[:payloadLen]

	plain := payloadBytes
	if flags.HasCommon(wire.Compressed) {
		decompressed, err := brotli.Decompress(payloadBytes)
		if err != nil {
			return nil, 0, m2merr.NewDecompressionError("brotli decompress failed", err)
		}
		plain = decompressed
	}

	if !integrity.Verify(plain, crc) {
		return nil, 0, m2merr.NewDecompressionError(fmt.Sprintf("checksum mismatch: want %08x", crc), nil)
	}
	if !utf8.Valid(plain) {
		return nil, 0, m2merr.NewDecompressionError("payload is not valid utf-8", nil)
	}
	return plain, crc, nil
}

func parseJSONObject(jsonText string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

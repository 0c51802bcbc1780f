package wire

import "encoding/binary"

// Flags is the 32-bit bitfield carried in a FixedHeader. The low 16 bits
// are schema-specific (interpreted as RequestFlag bits for Request/
// EmbeddingRequest, or ResponseFlag bits for Response/EmbeddingResponse);
// the high 16 bits are common to every schema.
type Flags uint32

// RequestFlag bits occupy the low word when Schema is request-like.
type RequestFlag uint32

const (
	HasSystemPrompt RequestFlag = 1 << iota
	HasTools
	HasToolChoice
	StreamRequested
	HasResponseFormat
	HasMaxTokens
	HasReasoningEffort
	HasServiceTier
	HasSeed
	HasLogprobs
	HasUserID
	HasTemperature
	HasTopP
	HasStop
	HasImages
)

// ResponseFlag bits occupy the low word when Schema is response-like.
type ResponseFlag uint32

const (
	HasToolCalls ResponseFlag = 1 << iota
	HasRefusal
	ContentFiltered
	Truncated
	HasUsage
	HasCachedTokens
	HasReasoningTokens
	HasCostEstimate
)

// CommonFlag bits occupy the high word of Flags, valid for every schema.
const (
	// Compressed indicates the payload block was Brotli-compressed.
	Compressed CommonFlag = 1 << iota
)

// CommonFlag is a bit in the high 16 bits of Flags.
type CommonFlag uint32

// commonShift is where the common flag word starts within Flags.
const commonShift = 16

// SetRequest sets a request-specific bit.
func (f Flags) SetRequest(bit RequestFlag) Flags { return f | Flags(bit) }

// HasRequest reports whether a request-specific bit is set.
func (f Flags) HasRequest(bit RequestFlag) bool { return f&Flags(bit) != 0 }

// SetResponse sets a response-specific bit.
func (f Flags) SetResponse(bit ResponseFlag) Flags { return f | Flags(bit) }

// HasResponse reports whether a response-specific bit is set.
func (f Flags) HasResponse(bit ResponseFlag) bool { return f&Flags(bit) != 0 }

// SetCommon sets a bit in the common (high) word.
func (f Flags) SetCommon(bit CommonFlag) Flags { return f | Flags(bit)<<commonShift }

// HasCommon reports whether a bit in the common (high) word is set.
func (f Flags) HasCommon(bit CommonFlag) bool { return f&(Flags(bit)<<commonShift) != 0 }

// Bytes encodes f as 4 little-endian bytes.
func (f Flags) Bytes() [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(f))
	return b
}

// FlagsFromBytes decodes a Flags value from 4 little-endian bytes.
func FlagsFromBytes(b []byte) Flags {
	return Flags(binary.LittleEndian.Uint32(b))
}

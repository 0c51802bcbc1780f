package wire

import (
	"encoding/binary"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// FixedHeaderSize is the exact on-wire size of a FixedHeader, in bytes.
const FixedHeaderSize = 20

// FixedHeader is the 20-byte header every M2M frame begins with (after the
// ASCII prefix). Reserved bytes must be zero on encode and are ignored on
// decode.
type FixedHeader struct {
	// HeaderLen is FixedHeaderSize plus the size of the variable header.
	HeaderLen uint16
	Schema    Schema
	Security  SecurityMode
	Flags     Flags
}

// Encode writes the 20-byte wire representation of h.
func (h FixedHeader) Encode() []byte {
	buf := make([]byte, FixedHeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.HeaderLen)
	buf[2] = byte(h.Schema)
	buf[3] = byte(h.Security)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(h.Flags))
	// buf[8:20] reserved, left zero.
	return buf
}

// DecodeFixedHeader reads a FixedHeader from the front of buf.
func DecodeFixedHeader(buf []byte) (FixedHeader, error) {
	if len(buf) < FixedHeaderSize {
		return FixedHeader{}, m2merr.NewDecompressionError("fixed header too short", nil)
	}
	h := FixedHeader{
		HeaderLen: binary.LittleEndian.Uint16(buf[0:2]),
		Schema:    Schema(buf[2]),
		Security:  SecurityMode(buf[3]),
		Flags:     FlagsFromBytes(buf[4:8]),
	}
	if h.HeaderLen < FixedHeaderSize {
		return FixedHeader{}, m2merr.NewDecompressionError("invalid header_len < 20", nil)
	}
	return h, nil
}

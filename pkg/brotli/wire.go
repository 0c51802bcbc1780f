package brotli

import (
	"encoding/base64"
	"strings"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// Prefix is the self-describing wire prefix for the standalone Brotli
// codec: "#M2M[v3.0]|DATA:" followed by base64(brotli(text)).
const Prefix = "#M2M[v3.0]|DATA:"

// HasPrefix reports whether wire begins with the Brotli codec's prefix.
func HasPrefix(wire string) bool {
	return strings.HasPrefix(wire, Prefix)
}

// EncodeWire Brotli-compresses text and returns the full wire string.
func EncodeWire(text string) (string, error) {
	compressed, err := Compress([]byte(text))
	if err != nil {
		return "", m2merr.NewCompressionError("brotli compress failed", err)
	}
	return Prefix + base64.StdEncoding.EncodeToString(compressed), nil
}

// DecodeWire reverses EncodeWire, returning the original text byte-for-byte.
func DecodeWire(wire string) (string, error) {
	if !HasPrefix(wire) {
		return "", m2merr.NewDecompressionError("missing brotli wire prefix", nil)
	}
	encoded := wire[len(Prefix):]
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", m2merr.NewDecompressionError("base64 decode failed", err)
	}
	out, err := Decompress(raw)
	if err != nil {
		return "", m2merr.NewDecompressionError("brotli decompress failed", err)
	}
	return string(out), nil
}

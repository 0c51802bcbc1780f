package legacy

import (
	"encoding/base64"
	"strings"
)

// DictionaryPrefix is the wire prefix of the deprecated pattern-substitution
// codec. It collides in appearance with the core M2M frame codec's own
// "#M2M|" marker only by name, not by byte layout: the frame codec's prefix
// is followed by a fixed binary header, while this one is followed by
// either raw text (content too short to compress) or base64.
const DictionaryPrefix = "#M2M|"

// DecodeDictionary reverses the dictionary/pattern codec's compression:
// base64-decode the payload, then expand any byte in the 0x80-0xFF pattern
// range back to the JSON fragment it stands for. Content that was too
// short to compress was written through as literal text with no base64
// layer, so a base64 decode failure falls back to returning the payload
// unchanged.
func DecodeDictionary(wire string) (string, error) {
	data := strings.TrimPrefix(wire, DictionaryPrefix)

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return data, nil
	}

	var b strings.Builder
	b.Grow(len(decoded) * 2)
	for _, by := range decoded {
		if by >= patternStart {
			if pattern, ok := patternDecode[by]; ok {
				b.WriteString(pattern)
				continue
			}
		}
		b.WriteByte(by)
	}
	return b.String(), nil
}

// IsDictionaryFrame reports whether wire carries the dictionary codec's
// prefix.
func IsDictionaryFrame(wire string) bool {
	return strings.HasPrefix(wire, DictionaryPrefix)
}

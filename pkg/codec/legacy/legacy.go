package legacy

import "strings"

// Decode recognizes any of the three legacy prefixes and delegates to the
// matching narrow decoder, returning ok=false if data carries none of
// them. This is the single entry point a decode path should call after
// the core algorithm.Detect has already come back None: it exists for
// backward-compat reads only and has no corresponding encode-side
// counterpart anywhere in this module.
func Decode(data []byte) (content string, ok bool, err error) {
	switch {
	case strings.HasPrefix(string(data), M3Prefix):
		content, err = DecodeM3(data)
		return content, true, err
	case strings.HasPrefix(string(data), TokenPrefix):
		content, err = DecodeToken(string(data))
		return content, true, err
	case strings.HasPrefix(string(data), DictionaryPrefix):
		content, err = DecodeDictionary(string(data))
		return content, true, err
	default:
		return "", false, nil
	}
}

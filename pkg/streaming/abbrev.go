package streaming

// keyAbbrev is the fixed key abbreviation table (spec §4.11). Keys not
// present here pass through unchanged.
var keyAbbrev = map[string]string{
	"messages":      "m",
	"content":       "c",
	"role":          "r",
	"choices":       "C",
	"delta":         "D",
	"id":            "I",
	"model":         "M",
	"index":         "i",
	"object":        "o",
	"created":       "t",
	"usage":         "u",
	"tool_calls":    "T",
	"function":      "f",
	"name":          "n",
	"arguments":     "a",
	"finish_reason": "F",
}

// keyExpand is keyAbbrev inverted.
var keyExpand = invert(keyAbbrev)

// roleAbbrev is the fixed role-value abbreviation table (spec §4.11).
// "user" is explicitly NOT abbreviated.
var roleAbbrev = map[string]string{
	"system":    "S",
	"assistant": "A",
	"tool":      "T",
}

var roleExpand = invert(roleAbbrev)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// abbreviateKey maps a JSON object key to its short form, or returns it
// unchanged if it has none.
func abbreviateKey(key string) string {
	if short, ok := keyAbbrev[key]; ok {
		return short
	}
	return key
}

// expandKey reverses abbreviateKey.
func expandKey(key string) string {
	if long, ok := keyExpand[key]; ok {
		return long
	}
	return key
}

// abbreviateRole maps a role value to its short form; "user" and any
// value outside the table are returned unchanged.
func abbreviateRole(role string) string {
	if short, ok := roleAbbrev[role]; ok {
		return short
	}
	return role
}

// expandRole reverses abbreviateRole.
func expandRole(role string) string {
	if long, ok := roleExpand[role]; ok {
		return long
	}
	return role
}

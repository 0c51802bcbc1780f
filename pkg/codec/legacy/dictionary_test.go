package legacy

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeDictionaryShortContentPassesThrough(t *testing.T) {
	t.Parallel()

	wire := DictionaryPrefix + `{"model":"gpt-4o"}`
	got, err := DecodeDictionary(wire)
	require.NoError(t, err)
	require.Equal(t, `{"model":"gpt-4o"}`, got)
}

func TestDecodeDictionaryExpandsPatternBytes(t *testing.T) {
	t.Parallel()

	// "{"model":" -> 0x87, then "gpt-4o -> 0x91, then literal `"}`.
	compressed := []byte{0x87, 0x91, '"', '}'}
	wire := DictionaryPrefix + base64.StdEncoding.EncodeToString(compressed)

	got, err := DecodeDictionary(wire)
	require.NoError(t, err)
	require.Equal(t, `{"model":"gpt-4o"}`, got)
}

func TestIsDictionaryFrame(t *testing.T) {
	t.Parallel()

	require.True(t, IsDictionaryFrame(DictionaryPrefix+"anything"))
	require.False(t, IsDictionaryFrame("#M3|anything"))
}

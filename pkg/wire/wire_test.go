package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"system", RoleSystem, true},
		{"developer", RoleSystem, true},
		{"user", RoleUser, true},
		{"assistant", RoleAssistant, true},
		{"tool", RoleTool, true},
		{"bogus", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseRole(c.in)
		require.Equal(t, c.ok, ok, c.in)
		if ok {
			require.Equal(t, c.want, got, c.in)
		}
	}
}

func TestParseFinishReason(t *testing.T) {
	t.Parallel()

	require.Equal(t, FinishStop, ParseFinishReason("stop"))
	require.Equal(t, FinishToolCalls, ParseFinishReason("tool_calls"))
	require.Equal(t, FinishToolCalls, ParseFinishReason("function_call"))
	require.Equal(t, FinishContentFilter, ParseFinishReason("content_filter"))
	require.Equal(t, FinishUnknown, ParseFinishReason("something_else"))
}

func TestFlagsRequestResponseIndependentWords(t *testing.T) {
	t.Parallel()

	var f Flags
	f = f.SetRequest(HasSystemPrompt)
	f = f.SetRequest(HasMaxTokens)
	f = f.SetCommon(Compressed)

	require.True(t, f.HasRequest(HasSystemPrompt))
	require.True(t, f.HasRequest(HasMaxTokens))
	require.False(t, f.HasRequest(HasTools))
	require.True(t, f.HasCommon(Compressed))

	// Response bits occupy the same low word; setting response bits on a
	// value being read as request bits is the caller's responsibility to
	// avoid (Schema determines interpretation), but the bit storage itself
	// must not collide with the common (high) word.
	var r Flags
	r = r.SetResponse(HasUsage)
	require.True(t, r.HasResponse(HasUsage))
	require.False(t, r.HasCommon(Compressed))
}

func TestFlagsBytesRoundtrip(t *testing.T) {
	t.Parallel()

	f := Flags(0).SetRequest(HasImages).SetCommon(Compressed)
	b := f.Bytes()
	got := FlagsFromBytes(b[:])
	require.Equal(t, f, got)
}

func TestFixedHeaderRoundtrip(t *testing.T) {
	t.Parallel()

	h := FixedHeader{
		HeaderLen: 42,
		Schema:    SchemaRequest,
		Security:  SecurityAEAD,
		Flags:     Flags(0).SetRequest(HasSystemPrompt).SetCommon(Compressed),
	}
	buf := h.Encode()
	require.Len(t, buf, FixedHeaderSize)

	got, err := DecodeFixedHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)

	// Reserved bytes must be zero.
	require.Equal(t, make([]byte, 12), buf[8:20])
}

func TestDecodeFixedHeaderTooShort(t *testing.T) {
	t.Parallel()

	_, err := DecodeFixedHeader(make([]byte, 10))
	require.Error(t, err)
}

func TestDecodeFixedHeaderInvalidLen(t *testing.T) {
	t.Parallel()

	h := FixedHeader{HeaderLen: 5, Schema: SchemaRequest}
	buf := h.Encode()
	_, err := DecodeFixedHeader(buf)
	require.Error(t, err)
}

func TestSchemaVariableHeaderClassification(t *testing.T) {
	t.Parallel()

	require.True(t, SchemaRequest.HasVariableHeader())
	require.True(t, SchemaResponse.HasVariableHeader())
	require.True(t, SchemaEmbeddingReq.HasVariableHeader())
	require.True(t, SchemaEmbeddingResp.HasVariableHeader())
	require.False(t, SchemaCustom.HasVariableHeader())
	require.False(t, SchemaUnknown.HasVariableHeader())

	require.True(t, SchemaRequest.IsRequestLike())
	require.True(t, SchemaEmbeddingReq.IsRequestLike())
	require.True(t, SchemaResponse.IsResponseLike())
	require.True(t, SchemaEmbeddingResp.IsResponseLike())
}

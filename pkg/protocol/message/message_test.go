package message

import (
	"testing"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/protocol/capabilities"
	"github.com/stretchr/testify/require"
)

func sampleCapabilities() capabilities.Capabilities {
	return capabilities.Capabilities{
		Version:   capabilities.ProtocolVersion,
		AgentID:   "agent-1",
		AgentType: "service",
		Compression: capabilities.CompressionCaps{
			Algorithms:        []algorithm.Algorithm{algorithm.M2M, algorithm.Brotli},
			Encodings:         []string{"cl100k"},
			PreferredEncoding: "cl100k",
			MaxPayload:        1 << 20,
			Streaming:         true,
		},
		Security:   capabilities.SecurityCaps{ThreatDetection: true},
		Extensions: map[string]string{"vendor": "infernet"},
	}
}

func TestHelloRoundtrip(t *testing.T) {
	t.Parallel()

	caps := sampleCapabilities()
	msg := Message{Type: TypeHello, TimestampMS: 1700000000000, Capabilities: &caps}

	raw, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, TypeHello, decoded.Type)
	require.Equal(t, msg.TimestampMS, decoded.TimestampMS)
	require.Equal(t, "", decoded.SessionID)
	require.NotNil(t, decoded.Capabilities)
	require.Equal(t, caps.AgentID, decoded.Capabilities.AgentID)
	require.Equal(t, caps.Compression.Algorithms, decoded.Capabilities.Compression.Algorithms)
}

func TestAcceptCarriesSessionID(t *testing.T) {
	t.Parallel()

	caps := sampleCapabilities()
	msg := Message{Type: TypeAccept, SessionID: "11111111-1111-4111-8111-111111111111", TimestampMS: 42, Capabilities: &caps}

	raw, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, msg.SessionID, decoded.SessionID)
}

func TestRejectRoundtrip(t *testing.T) {
	t.Parallel()

	msg := Message{
		Type:        TypeReject,
		TimestampMS: 7,
		Rejection:   &Rejection{Code: m2merr.RejectNoCommonAlgorithm, Message: "no shared algorithm"},
	}

	raw, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, m2merr.RejectNoCommonAlgorithm, decoded.Rejection.Code)
	require.Equal(t, "no shared algorithm", decoded.Rejection.Message)
}

func TestDataRoundtripPreservesAlgorithmAndContent(t *testing.T) {
	t.Parallel()

	size := uint64(256)
	msg := Message{
		Type:        TypeData,
		SessionID:   "session-1",
		TimestampMS: 99,
		Data: &Data{
			Algorithm:    algorithm.BPETokens,
			Content:      "#TK|C|AAA=",
			OriginalSize: &size,
			SecurityStatus: &SecurityStatus{
				Safe:       true,
				Confidence: 0.98,
			},
		},
	}

	raw, err := Encode(msg)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"algorithm":"bpetokens"`)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, algorithm.BPETokens, decoded.Data.Algorithm)
	require.Equal(t, msg.Data.Content, decoded.Data.Content)
	require.Equal(t, *msg.Data.OriginalSize, *decoded.Data.OriginalSize)
	require.True(t, decoded.Data.SecurityStatus.Safe)
}

func TestPingPongCloseRoundtrip(t *testing.T) {
	t.Parallel()

	for _, typ := range []Type{TypePing, TypePong, TypeClose} {
		msg := Message{Type: typ, SessionID: "session-1", TimestampMS: 5}
		raw, err := Encode(msg)
		require.NoError(t, err)

		decoded, err := Decode(raw)
		require.NoError(t, err)
		require.Equal(t, typ, decoded.Type)
		require.Equal(t, msg.SessionID, decoded.SessionID)
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"type":"BOGUS","timestamp":1}`))
	require.Error(t, err)
}

func TestDecodeRejectsDataWithoutPayload(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"type":"DATA","session_id":"s","timestamp":1}`))
	require.Error(t, err)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`not json`))
	require.Error(t, err)
}

func TestParseThenSerializeIsStable(t *testing.T) {
	t.Parallel()

	caps := sampleCapabilities()
	original := Message{Type: TypeHello, TimestampMS: 123456789, Capabilities: &caps}

	raw1, err := Encode(original)
	require.NoError(t, err)
	decoded, err := Decode(raw1)
	require.NoError(t, err)
	raw2, err := Encode(decoded)
	require.NoError(t, err)

	redecoded, err := Decode(raw2)
	require.NoError(t, err)
	require.Equal(t, decoded.Type, redecoded.Type)
	require.Equal(t, decoded.SessionID, redecoded.SessionID)
	require.Equal(t, decoded.TimestampMS, redecoded.TimestampMS)
	require.Equal(t, decoded.Capabilities, redecoded.Capabilities)
}

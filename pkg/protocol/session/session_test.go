package session

import (
	"context"
	"testing"
	"time"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/codec"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/protocol/capabilities"
	"github.com/infernet-m2m/m2m-core/pkg/protocol/message"
	"github.com/infernet-m2m/m2m-core/pkg/telemetry"
	"github.com/stretchr/testify/require"
)

func capsFor(agentID string, algs ...algorithm.Algorithm) capabilities.Capabilities {
	return capabilities.Capabilities{
		Version:   capabilities.ProtocolVersion,
		AgentID:   agentID,
		AgentType: "service",
		Compression: capabilities.CompressionCaps{
			Algorithms:        algs,
			Encodings:         []string{"cl100k"},
			PreferredEncoding: "cl100k",
			Streaming:         true,
		},
		Security: capabilities.SecurityCaps{ThreatDetection: true},
	}
}

func newPair(t *testing.T, clientAlgs, serverAlgs []algorithm.Algorithm) (*Session, *Session) {
	t.Helper()
	client := New(capsFor("client", clientAlgs...), codec.NewEngine())
	server := New(capsFor("server", serverAlgs...), codec.NewEngine())
	return client, server
}

func handshake(t *testing.T, client, server *Session) (message.Message, message.Message) {
	t.Helper()
	hello, err := client.CreateHello()
	require.NoError(t, err)
	require.Equal(t, HelloSent, client.State)

	reply, err := server.RecvHello(hello)
	require.NoError(t, err)
	return hello, reply
}

func TestFullHandshakeReachesEstablishedWithEqualIDs(t *testing.T) {
	t.Parallel()

	client, server := newPair(t, []algorithm.Algorithm{algorithm.M2M, algorithm.Brotli}, []algorithm.Algorithm{algorithm.M2M})
	_, accept := handshake(t, client, server)

	require.Equal(t, message.TypeAccept, accept.Type)
	require.Equal(t, Established, server.State)

	err := client.RecvAccept(accept)
	require.NoError(t, err)

	require.Equal(t, Established, client.State)
	require.Equal(t, server.ID, client.ID)
	require.NotNil(t, client.Negotiated)
	require.Equal(t, algorithm.M2M, client.Negotiated.Algorithm)
}

func TestHandshakeVersionMismatchRejects(t *testing.T) {
	t.Parallel()

	client, server := newPair(t, []algorithm.Algorithm{algorithm.M2M}, []algorithm.Algorithm{algorithm.M2M})
	server.LocalCaps.Version = "4.0"

	hello, err := client.CreateHello()
	require.NoError(t, err)
	reject, err := server.RecvHello(hello)
	require.NoError(t, err)

	require.Equal(t, message.TypeReject, reject.Type)
	require.Equal(t, m2merr.RejectVersionMismatch, reject.Rejection.Code)
	require.Equal(t, Closed, server.State)

	err = client.RecvReject(reject)
	require.NoError(t, err)
	require.Equal(t, Closed, client.State)
	require.Equal(t, m2merr.RejectVersionMismatch, client.RejectReason().Code)
}

func TestHandshakeDisjointAlgorithmsRejects(t *testing.T) {
	t.Parallel()

	client, server := newPair(t, []algorithm.Algorithm{algorithm.BPETokens}, []algorithm.Algorithm{algorithm.Brotli})

	hello, err := client.CreateHello()
	require.NoError(t, err)
	reject, err := server.RecvHello(hello)
	require.NoError(t, err)

	require.Equal(t, message.TypeReject, reject.Type)
	require.Equal(t, m2merr.RejectNoCommonAlgorithm, reject.Rejection.Code)

	err = client.RecvReject(reject)
	require.NoError(t, err)
	require.Equal(t, Closed, client.State)
}

func establishedPair(t *testing.T) (*Session, *Session) {
	t.Helper()
	client, server := newPair(t, []algorithm.Algorithm{algorithm.M2M, algorithm.Brotli}, []algorithm.Algorithm{algorithm.M2M, algorithm.Brotli})
	_, accept := handshake(t, client, server)
	require.NoError(t, client.RecvAccept(accept))
	return client, server
}

func TestDataOpsRejectedBeforeEstablished(t *testing.T) {
	t.Parallel()

	s := New(capsFor("solo", algorithm.M2M), codec.NewEngine())
	_, err := s.Compress("hello")
	require.ErrorIs(t, err, m2merr.ErrSessionNotEstablished)
}

func TestCompressDecompressRoundtripBetweenEstablishedPeers(t *testing.T) {
	t.Parallel()

	client, server := establishedPair(t)

	payload := `{"model":"gpt-4o","messages":[{"role":"user","content":"hi there, how are you today?"}]}`
	dataMsg, err := client.Compress(payload)
	require.NoError(t, err)
	// HELLO plus this DATA message.
	require.Equal(t, uint64(2), client.Stats.MessagesSent)

	text, err := server.Decompress(dataMsg)
	require.NoError(t, err)
	require.JSONEq(t, payload, text)
	// HELLO plus this DATA message.
	require.Equal(t, uint64(2), server.Stats.MessagesReceived)
}

func TestCompressDecompressTracedRoundtripWithTelemetryEnabled(t *testing.T) {
	t.Parallel()

	client, server := establishedPair(t)
	client.Telemetry = telemetry.DefaultSettings().WithEnabled(true)
	server.Telemetry = telemetry.DefaultSettings().WithEnabled(true)

	payload := `{"model":"gpt-4o","messages":[{"role":"user","content":"hi there, how are you today?"}]}`
	dataMsg, err := client.CompressTraced(context.Background(), payload)
	require.NoError(t, err)

	text, err := server.DecompressTraced(context.Background(), dataMsg)
	require.NoError(t, err)
	require.JSONEq(t, payload, text)
}

func TestPingPongUpdatesActivity(t *testing.T) {
	t.Parallel()

	client, server := establishedPair(t)
	ping := message.Message{Type: message.TypePing, SessionID: server.ID}
	pong, err := server.RecvPing(ping)
	require.NoError(t, err)
	require.Equal(t, message.TypePong, pong.Type)

	err = client.RecvPong(pong)
	require.NoError(t, err)
}

func TestCloseThenRecvCloseReachesClosed(t *testing.T) {
	t.Parallel()

	client, server := establishedPair(t)
	closeMsg, err := client.Close()
	require.NoError(t, err)
	require.Equal(t, Closing, client.State)

	err = server.RecvClose(closeMsg)
	require.NoError(t, err)
	require.Equal(t, Closed, server.State)
}

func TestSessionExpiredAfterTimeout(t *testing.T) {
	t.Parallel()

	client, _ := establishedPair(t)
	client.Timeout = time.Millisecond
	frozen := client.LastActivity.Add(-time.Second)
	client.LastActivity = frozen

	_, err := client.Compress("hello")
	require.ErrorIs(t, err, m2merr.ErrSessionExpired)
}

func TestRecvHelloWrongStateIsProtocolError(t *testing.T) {
	t.Parallel()

	client, server := establishedPair(t)

	_, err := client.CreateHello()
	require.Error(t, err)

	_, err = server.RecvHello(message.Message{Type: message.TypeHello, Capabilities: &server.LocalCaps})
	require.Error(t, err)
}

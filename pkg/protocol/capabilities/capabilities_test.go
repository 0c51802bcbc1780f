package capabilities

import (
	"testing"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/stretchr/testify/require"
)

func TestVersionCompatibleComparesOnlyMajor(t *testing.T) {
	t.Parallel()

	require.True(t, VersionCompatible("3.0", "3.5"))
	require.False(t, VersionCompatible("3.0", "4.0"))
}

func TestCompressionCapsNegotiatePicksOurFirstPreferenceTheyShare(t *testing.T) {
	t.Parallel()

	ours := CompressionCaps{Algorithms: []algorithm.Algorithm{algorithm.Brotli, algorithm.M2M, algorithm.BPETokens}}
	theirs := CompressionCaps{Algorithms: []algorithm.Algorithm{algorithm.M2M, algorithm.BPETokens}}

	alg, ok := ours.Negotiate(theirs)
	require.True(t, ok)
	require.Equal(t, algorithm.M2M, alg)
}

func TestCompressionCapsNegotiateNoOverlap(t *testing.T) {
	t.Parallel()

	ours := CompressionCaps{Algorithms: []algorithm.Algorithm{algorithm.BPETokens}}
	theirs := CompressionCaps{Algorithms: []algorithm.Algorithm{algorithm.Brotli}}

	_, ok := ours.Negotiate(theirs)
	require.False(t, ok)
}

func TestNegotiateEncodingPrefersOurPreferredWhenSupported(t *testing.T) {
	t.Parallel()

	ours := CompressionCaps{PreferredEncoding: "o200k", Encodings: []string{"o200k", "cl100k"}}
	theirs := CompressionCaps{Encodings: []string{"o200k", "cl100k"}}

	require.Equal(t, "o200k", ours.NegotiateEncoding(theirs))
}

func TestNegotiateEncodingFallsBackToMutual(t *testing.T) {
	t.Parallel()

	ours := CompressionCaps{PreferredEncoding: "o200k", Encodings: []string{"o200k", "cl100k"}}
	theirs := CompressionCaps{Encodings: []string{"cl100k"}}

	require.Equal(t, "cl100k", ours.NegotiateEncoding(theirs))
}

func TestNegotiateEncodingFallsBackToCl100kWhenNoMutualSupport(t *testing.T) {
	t.Parallel()

	ours := CompressionCaps{PreferredEncoding: "o200k", Encodings: []string{"o200k"}}
	theirs := CompressionCaps{Encodings: []string{"llama"}}

	require.Equal(t, "cl100k", ours.NegotiateEncoding(theirs))
}

func baseCaps(agentID string) Capabilities {
	return Capabilities{
		Version:   ProtocolVersion,
		AgentID:   agentID,
		AgentType: "service",
		Compression: CompressionCaps{
			Algorithms:        []algorithm.Algorithm{algorithm.M2M, algorithm.Brotli},
			Encodings:         []string{"cl100k"},
			PreferredEncoding: "cl100k",
			Streaming:         true,
			MLRouting:         false,
		},
		Security: SecurityCaps{ThreatDetection: true},
	}
}

func TestNegotiateFullSuccess(t *testing.T) {
	t.Parallel()

	local := baseCaps("client")
	remote := baseCaps("server")
	remote.Compression.MLRouting = true
	remote.Security.ThreatDetection = false
	remote.Security.BlockingMode = true

	caps, err := Negotiate(local, remote)
	require.NoError(t, err)
	require.Equal(t, algorithm.M2M, caps.Algorithm)
	require.Equal(t, "cl100k", caps.Encoding)
	require.True(t, caps.Streaming)
	require.False(t, caps.MLRouting)
	require.True(t, caps.ThreatDetection)
	require.True(t, caps.BlockingMode)
}

func TestNegotiateVersionMismatch(t *testing.T) {
	t.Parallel()

	local := baseCaps("client")
	remote := baseCaps("server")
	remote.Version = "4.0"

	_, err := Negotiate(local, remote)
	require.Error(t, err)
	require.True(t, m2merr.IsNegotiationFailedError(err))

	var negErr *m2merr.NegotiationFailedError
	require.ErrorAs(t, err, &negErr)
	require.Equal(t, m2merr.RejectVersionMismatch, negErr.Code)
}

func TestNegotiateNoCommonAlgorithm(t *testing.T) {
	t.Parallel()

	local := baseCaps("client")
	local.Compression.Algorithms = []algorithm.Algorithm{algorithm.BPETokens}
	remote := baseCaps("server")
	remote.Compression.Algorithms = []algorithm.Algorithm{algorithm.Brotli}

	_, err := Negotiate(local, remote)
	require.Error(t, err)

	var negErr *m2merr.NegotiationFailedError
	require.ErrorAs(t, err, &negErr)
	require.Equal(t, m2merr.RejectNoCommonAlgorithm, negErr.Code)
}

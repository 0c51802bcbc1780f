// Package capabilities implements Capabilities and handshake negotiation
// (spec §3 Capabilities/NegotiatedCaps, §4.7): the per-agent feature
// advertisement exchanged in HELLO/ACCEPT, and the deterministic rules two
// peers use to agree on an algorithm, encoding, and feature set.
package capabilities

import (
	"strings"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// ProtocolVersion is the core's wire protocol version (spec §6:
// PROTOCOL_VERSION = "3.0").
const ProtocolVersion = "3.0"

// CompressionCaps is the compression-related half of Capabilities.
type CompressionCaps struct {
	Algorithms        []algorithm.Algorithm
	Encodings         []string
	PreferredEncoding string
	MaxPayload        uint64
	Streaming         bool
	MLRouting         bool
}

// SecurityCaps is the security-related half of Capabilities.
type SecurityCaps struct {
	ThreatDetection bool
	BlockingMode    bool
	BlockThreshold  float64
}

// Capabilities is one agent's full feature advertisement, carried as the
// payload of a HELLO or ACCEPT message.
type Capabilities struct {
	Version     string
	AgentID     string
	AgentType   string
	Compression CompressionCaps
	Security    SecurityCaps
	Extensions  map[string]string
}

// NegotiatedCaps is the result of intersecting two peers' Capabilities
// (spec §4.7).
type NegotiatedCaps struct {
	Algorithm       algorithm.Algorithm
	Encoding        string
	Streaming       bool
	MLRouting       bool
	ThreatDetection bool
	BlockingMode    bool
}

// majorVersion returns the portion of a version string before its first
// dot, e.g. "3.0" -> "3".
func majorVersion(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}

// VersionCompatible reports whether two version strings share a major
// component (spec §4.7).
func VersionCompatible(a, b string) bool {
	return majorVersion(a) == majorVersion(b)
}

// Negotiate picks an algorithm: the first entry in our preference list
// that also appears in other's algorithm list (spec §4.7). The zero value
// and false are returned when no algorithm is shared.
func (c CompressionCaps) Negotiate(other CompressionCaps) (algorithm.Algorithm, bool) {
	offered := make(map[algorithm.Algorithm]struct{}, len(other.Algorithms))
	for _, a := range other.Algorithms {
		offered[a] = struct{}{}
	}
	for _, a := range c.Algorithms {
		if _, ok := offered[a]; ok {
			return a, true
		}
	}
	return 0, false
}

// NegotiateEncoding picks a tokenizer encoding: our preferred encoding if
// other supports it, else the first mutually supported encoding, else
// "cl100k" as a last resort (spec §4.7).
func (c CompressionCaps) NegotiateEncoding(other CompressionCaps) string {
	otherSet := make(map[string]struct{}, len(other.Encodings))
	for _, e := range other.Encodings {
		otherSet[e] = struct{}{}
	}
	if c.PreferredEncoding != "" {
		if _, ok := otherSet[c.PreferredEncoding]; ok {
			return c.PreferredEncoding
		}
	}
	for _, e := range c.Encodings {
		if _, ok := otherSet[e]; ok {
			return e
		}
	}
	return "cl100k"
}

// Negotiate runs the full handshake negotiation between local (ours) and
// remote Capabilities, returning a NegotiatedCaps on success or a
// *m2merr.NegotiationFailedError carrying the appropriate RejectionCode on
// failure (spec §4.7).
func Negotiate(local, remote Capabilities) (NegotiatedCaps, error) {
	if !VersionCompatible(local.Version, remote.Version) {
		return NegotiatedCaps{}, m2merr.NewNegotiationFailedError(
			m2merr.RejectVersionMismatch,
			"major version mismatch: "+local.Version+" vs "+remote.Version,
		)
	}

	alg, ok := local.Compression.Negotiate(remote.Compression)
	if !ok {
		return NegotiatedCaps{}, m2merr.NewNegotiationFailedError(
			m2merr.RejectNoCommonAlgorithm,
			"no algorithm in common",
		)
	}

	encoding := local.Compression.NegotiateEncoding(remote.Compression)

	return NegotiatedCaps{
		Algorithm:       alg,
		Encoding:        encoding,
		Streaming:       local.Compression.Streaming && remote.Compression.Streaming,
		MLRouting:       local.Compression.MLRouting && remote.Compression.MLRouting,
		ThreatDetection: local.Security.ThreatDetection || remote.Security.ThreatDetection,
		BlockingMode:    local.Security.BlockingMode || remote.Security.BlockingMode,
	}, nil
}

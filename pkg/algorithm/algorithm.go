// Package algorithm defines the compression-algorithm tag (spec §3
// Algorithm) shared by the codec engine, the ML router, and the security
// scanner collaborators, plus prefix-based detection (spec §4.6(a)).
package algorithm

import (
	"strings"

	"github.com/infernet-m2m/m2m-core/pkg/brotli"
	"github.com/infernet-m2m/m2m-core/pkg/codec/bpe"
	"github.com/infernet-m2m/m2m-core/pkg/codec/m2m"
)

// Algorithm is the tagged choice among the four wire-prefixed codecs.
type Algorithm byte

const (
	None Algorithm = iota
	M2M
	BPETokens
	Brotli
)

// String returns the algorithm's wire name, as carried in a DATA message's
// algorithm field (spec §6: "m2m|bpetokens|brotli|none").
func (a Algorithm) String() string {
	switch a {
	case M2M:
		return "m2m"
	case BPETokens:
		return "bpetokens"
	case Brotli:
		return "brotli"
	default:
		return "none"
	}
}

// Parse reverses String.
func Parse(s string) (Algorithm, bool) {
	switch s {
	case "m2m":
		return M2M, true
	case "bpetokens":
		return BPETokens, true
	case "brotli":
		return Brotli, true
	case "none":
		return None, true
	default:
		return 0, false
	}
}

// Detect scans wire for one of the three self-describing codec prefixes.
// An unrecognized prefix maps to None (treated as plain text on decode),
// per spec §4.6(f). Invariant: the three prefixes are pairwise distinct
// and unambiguous, so a single prefix scan suffices (spec §3 Algorithm).
func Detect(wire string) Algorithm {
	switch {
	case strings.HasPrefix(wire, m2m.Prefix):
		return M2M
	case strings.HasPrefix(wire, bpe.Prefix):
		return BPETokens
	case brotli.HasPrefix(wire):
		return Brotli
	default:
		return None
	}
}

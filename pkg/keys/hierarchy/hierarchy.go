// Package hierarchy implements deterministic per-agent, per-pair, and
// per-session key derivation from a shared organization master secret, via
// HKDF-SHA256 (spec §3 KeyHierarchy, §4.10). Grounded on
// golang.org/x/crypto/hkdf, the same subpackage luxfi-consensus's
// qzmq.go wires for an unrelated secure-transport handshake.
package hierarchy

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/infernet-m2m/m2m-core/pkg/ids"
	"github.com/infernet-m2m/m2m-core/pkg/keys"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// MaxDerivedLen is the largest output HKDF-SHA256 can safely produce:
// 255 * HashLen (32 bytes for SHA-256) = 8160 bytes, per spec §4.10.
const MaxDerivedLen = 255 * 32

// Hierarchy derives domain-separated keys from an organization's master
// secret. The master is never exposed after construction except through
// Close, which zeroizes it.
type Hierarchy struct {
	master *keys.Material
	org    ids.OrgId
}

// New builds a Hierarchy from a master secret and organization id. master
// is cloned; the caller remains responsible for zeroizing its own copy.
func New(master *keys.Material, org ids.OrgId) *Hierarchy {
	return &Hierarchy{master: master.Clone(), org: org}
}

// Close zeroizes the hierarchy's master secret. The Hierarchy must not be
// used afterward.
func (h *Hierarchy) Close() {
	h.master.Zero()
}

// derive runs HKDF-SHA256 (no salt on Extract) with info as the Expand
// label and returns outLen bytes of key material.
func derive(master []byte, info string, outLen int) (*keys.Material, error) {
	if outLen <= 0 || outLen > MaxDerivedLen {
		return nil, m2merr.NewCryptoError(m2merr.CryptoDerivationFailed,
			fmt.Errorf("out_len %d outside (0, %d]", outLen, MaxDerivedLen))
	}
	r := hkdf.New(sha256.New, master, nil, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, m2merr.NewCryptoError(m2merr.CryptoDerivationFailed, err)
	}
	m, err := keys.New(out)
	for i := range out {
		out[i] = 0
	}
	if err != nil {
		return nil, m2merr.NewCryptoError(m2merr.CryptoDerivationFailed, err)
	}
	return m, nil
}

// Derive exposes raw HKDF derivation under an arbitrary info label, for
// callers that need a path this type doesn't name directly.
func (h *Hierarchy) Derive(info []byte, outLen int) (*keys.Material, error) {
	return derive(h.master.Bytes(), string(info), outLen)
}

// OrgKey derives the organization-level key: path "m2m/v1/{org}".
func (h *Hierarchy) OrgKey(outLen int) (*keys.Material, error) {
	return derive(h.master.Bytes(), fmt.Sprintf("m2m/v1/%s", h.org), outLen)
}

// AgentKey derives an agent-identity key: path "m2m/v1/{org}/{agent}".
func (h *Hierarchy) AgentKey(agent ids.AgentId, outLen int) (*keys.Material, error) {
	return derive(h.master.Bytes(), fmt.Sprintf("m2m/v1/%s/%s", h.org, agent), outLen)
}

// Purpose enumerates the sub-paths an agent's key may be derived for.
type Purpose string

const (
	PurposeIdentity       Purpose = "identity"
	PurposeEncryption     Purpose = "encryption"
	PurposeAuthentication Purpose = "authentication"
	PurposeSession        Purpose = "session"
)

// PurposeKey derives a purpose-scoped agent key: path
// "m2m/v1/{org}/{agent}/{purpose}".
func (h *Hierarchy) PurposeKey(agent ids.AgentId, purpose Purpose, outLen int) (*keys.Material, error) {
	return derive(h.master.Bytes(), fmt.Sprintf("m2m/v1/%s/%s/%s", h.org, agent, purpose), outLen)
}

// PairSessionKey derives a symmetric pair-session key: path
// "m2m/v1/{org}/session/{min(a,b)}:{max(a,b)}/{sessionID}". The result does
// not depend on the order a and b are passed in (spec invariant: pair
// session symmetry).
func (h *Hierarchy) PairSessionKey(a, b ids.AgentId, sessionID string, outLen int) (*keys.Material, error) {
	lo, hi := string(a), string(b)
	if hi < lo {
		lo, hi = hi, lo
	}
	return derive(h.master.Bytes(), fmt.Sprintf("m2m/v1/%s/session/%s:%s/%s", h.org, lo, hi, sessionID), outLen)
}

// SharedKey derives the organization-wide shared key: path
// "m2m/v1/{org}/shared".
func (h *Hierarchy) SharedKey(outLen int) (*keys.Material, error) {
	return derive(h.master.Bytes(), fmt.Sprintf("m2m/v1/%s/shared", h.org), outLen)
}

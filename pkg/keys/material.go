// Package keys implements opaque secret key material with guaranteed wipe
// on disposal, and an in-memory by-id keyring. See spec §3 (KeyMaterial)
// and §5 (key zeroization).
package keys

import (
	"crypto/subtle"
	"fmt"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// Material holds a secret byte string. Its zero value is not usable;
// construct with New. Material is not safe for concurrent Zero/use from
// multiple goroutines without external synchronization — callers that
// share a Material across goroutines must treat it as read-only until a
// single owner calls Zero.
type Material struct {
	b []byte
}

// New wraps b as key material. b must be non-empty; New copies b so the
// caller's buffer and the returned Material are independent.
func New(b []byte) (*Material, error) {
	if len(b) == 0 {
		return nil, m2merr.NewCryptoError(m2merr.CryptoInvalidKey, fmt.Errorf("key material must be non-empty"))
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Material{b: cp}, nil
}

// Bytes returns the underlying secret bytes. The returned slice aliases
// Material's internal storage; callers must not retain it past a Zero
// call.
func (m *Material) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.b
}

// Len returns the length of the key material in bytes.
func (m *Material) Len() int {
	if m == nil {
		return 0
	}
	return len(m.b)
}

// Clone returns an independent copy of m. The clone must be zeroized
// separately from the original.
func (m *Material) Clone() *Material {
	if m == nil {
		return nil
	}
	cp := make([]byte, len(m.b))
	copy(cp, m.b)
	return &Material{b: cp}
}

// Equal performs a constant-time comparison of two key materials.
func (m *Material) Equal(other *Material) bool {
	if m == nil || other == nil {
		return m == other
	}
	return subtle.ConstantTimeCompare(m.b, other.b) == 1
}

// Zero overwrites the underlying secret bytes with zeros. Call this as
// soon as the key material is no longer needed (typically via defer right
// after construction). Zero is idempotent.
func (m *Material) Zero() {
	if m == nil {
		return
	}
	for i := range m.b {
		m.b[i] = 0
	}
}

// String implements fmt.Stringer with full redaction so key material never
// leaks through %v/%s formatting or accidental logging.
func (m *Material) String() string {
	return "Material(REDACTED)"
}

// GoString implements fmt.GoStringer, redacting %#v the same way.
func (m *Material) GoString() string {
	return "keys.Material{REDACTED}"
}

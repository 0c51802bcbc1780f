// Package aead implements the two optional security layers a secured M2M
// frame may be sealed with: HMAC-SHA256 tagging and ChaCha20-Poly1305
// authenticated encryption, plus the nonce bookkeeping AEAD framing needs
// (spec §4 SecurityMode, §5 SecurityContext, §9 nonce-safety invariant).
// Grounded on luxfi-consensus's qzmq.go Session.Encrypt/Decrypt, the one
// repo in the pack that wires golang.org/x/crypto/chacha20poly1305 for an
// analogous counter-nonce sealed-session design.
package aead

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/infernet-m2m/m2m-core/pkg/keys"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// NonceSize is the ChaCha20-Poly1305 nonce length in bytes.
const NonceSize = chacha20poly1305.NonceSize

// TagSize is the ChaCha20-Poly1305 authentication tag length in bytes.
const TagSize = chacha20poly1305.Overhead

// maxCounter is the point at which a SecurityContext refuses to mint any
// further nonce under its current key, per spec §9's hard invariant.
const maxCounter = ^uint64(0) - 1

// ErrNonceSpaceExhausted is returned by NextNonce once the 64-bit counter
// approaches exhaustion; the caller MUST rekey before continuing.
var ErrNonceSpaceExhausted = fmt.Errorf("aead: nonce counter space exhausted, rekey required")

// SecurityContext produces monotonically non-repeating 12-byte nonces for
// one sending direction of one session, per spec §5. It pairs a 64-bit
// counter (the first 8 bytes, big-endian) with a random 32-bit salt fixed for
// the context's lifetime, so that two independently-constructed contexts
// never collide even if their counters happen to align. The same
// (key, nonce) pair MUST never encrypt twice; owning exactly one writer
// per context is the caller's responsibility.
type SecurityContext struct {
	mu      sync.Mutex
	key     *keys.Material
	salt    [4]byte
	counter uint64
}

// NewSecurityContext builds a context bound to key, drawing a fresh random
// salt for nonce domain separation.
func NewSecurityContext(key *keys.Material) (*SecurityContext, error) {
	var salt [4]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, m2merr.NewCryptoError(m2merr.CryptoRandomFailure, err)
	}
	return &SecurityContext{key: key, salt: salt}, nil
}

// NextNonce returns the next 12-byte nonce for this context: 8 bytes of
// big-endian counter followed by the context's 4-byte salt. It errors once
// the counter nears 2^64, per spec §9.
func (c *SecurityContext) NextNonce() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counter >= maxCounter {
		return nil, m2merr.NewCryptoError(m2merr.CryptoNonceExhausted, ErrNonceSpaceExhausted)
	}
	nonce := make([]byte, NonceSize)
	binary.BigEndian.PutUint64(nonce[:8], c.counter)
	copy(nonce[8:], c.salt[:])
	c.counter++
	return nonce, nil
}

// Reset zeroizes the counter and draws a fresh salt, per spec §9's
// "rekey and reset on session close" guidance.
func (c *SecurityContext) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var salt [4]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return m2merr.NewCryptoError(m2merr.CryptoRandomFailure, err)
	}
	c.salt = salt
	c.counter = 0
	return nil
}

// Seal encrypts plaintext under ctx's key with a freshly minted nonce and
// the given associated data, returning nonce || ciphertext || tag.
func Seal(ctx *SecurityContext, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(ctx.key.Bytes())
	if err != nil {
		return nil, m2merr.NewCryptoError(m2merr.CryptoInvalidKey, err)
	}
	nonce, err := ctx.NextNonce()
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, aad)
	out := make([]byte, 0, len(nonce)+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// Open decrypts a nonce || ciphertext || tag blob sealed by Seal, verifying
// aad. It does not consume any SecurityContext counter state: inbound
// frames carry their own nonce, they don't mint one from the receiver's
// sequence.
func Open(key *keys.Material, sealed, aad []byte) ([]byte, error) {
	if len(sealed) < NonceSize+TagSize {
		return nil, m2merr.NewCryptoError(m2merr.CryptoInvalidFrame, fmt.Errorf("aead: sealed blob too short"))
	}
	aeadCipher, err := chacha20poly1305.New(key.Bytes())
	if err != nil {
		return nil, m2merr.NewCryptoError(m2merr.CryptoInvalidKey, err)
	}
	nonce, ct := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := aeadCipher.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, m2merr.NewCryptoError(m2merr.CryptoAuthFailed, err)
	}
	return plaintext, nil
}

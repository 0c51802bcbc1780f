package aead

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/infernet-m2m/m2m-core/pkg/keys"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// TagLen is the HMAC-SHA256 tag length in bytes.
const TagLen = sha256.Size

// ComputeTag returns HMAC-SHA256(key, data).
func ComputeTag(key *keys.Material, data []byte) []byte {
	mac := hmac.New(sha256.New, key.Bytes())
	mac.Write(data)
	return mac.Sum(nil)
}

// VerifyTag checks tag against HMAC-SHA256(key, data) in constant time.
func VerifyTag(key *keys.Material, data, tag []byte) error {
	expected := ComputeTag(key, data)
	if !hmac.Equal(expected, tag) {
		return m2merr.NewCryptoError(m2merr.CryptoAuthFailed, nil)
	}
	return nil
}

package keys

import (
	"sync"

	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
)

// Keyring is an in-memory by-id map of key material, safe for concurrent
// use. Grounded on the teacher's registry.Registry (RWMutex-guarded map),
// generalized from provider names to key ids per spec §5 ("many reads,
// rare writes; readers MUST NOT hold the lock across I/O" — Keyring never
// performs I/O under lock).
type Keyring struct {
	mu   sync.RWMutex
	keys map[string]*Material
}

// NewKeyring creates an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string]*Material)}
}

// Put stores m under id, replacing and zeroizing any prior entry at id.
func (k *Keyring) Put(id string, m *Material) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if old, ok := k.keys[id]; ok {
		old.Zero()
	}
	k.keys[id] = m
}

// Get returns the key material stored under id.
func (k *Keyring) Get(id string) (*Material, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	m, ok := k.keys[id]
	if !ok {
		return nil, m2merr.NewCryptoError(m2merr.CryptoKeyNotFound, nil)
	}
	return m, nil
}

// Delete removes and zeroizes the key material stored under id, if any.
func (k *Keyring) Delete(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if m, ok := k.keys[id]; ok {
		m.Zero()
		delete(k.keys, id)
	}
}

// Zero zeroizes every key material the keyring holds and empties it.
func (k *Keyring) Zero() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for id, m := range k.keys {
		m.Zero()
		delete(k.keys, id)
	}
}

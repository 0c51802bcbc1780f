// Package registry implements the dynamic model-registry collaborator
// (spec §6: "Model registry: get(id_or_abbrev) → ModelCard?, abbreviate(id)
// → String, expand(abbrev) → id?, encoding_for(id) → Tokenizer,
// context_length(id) → u32, pricing(id) → {prompt, completion}?"), behind
// a read-write lock per spec §5's shared-resource policy ("many reads,
// rare writes; readers MUST NOT hold the lock across I/O").
package registry

import (
	"sync"

	"github.com/infernet-m2m/m2m-core/pkg/codec/bpe"
	"github.com/infernet-m2m/m2m-core/pkg/header"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/tokenizer"
)

// ModelCard is one model's static metadata: its short abbreviation, the
// BPE vocabulary it tokenizes with, its context window, and its per-token
// pricing, if known.
type ModelCard struct {
	ID            string
	Abbreviation  string
	Vocab         bpe.Vocab
	ContextLength uint32
	Pricing       *header.PricingEntry
}

// Registry resolves model ids/abbreviations to ModelCards. The zero
// Registry is not usable; construct one with NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]ModelCard
	byAbbrev map[string]string // abbreviation -> id
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]ModelCard),
		byAbbrev: make(map[string]string),
	}
}

// Register adds or replaces a ModelCard. Registering over an id that
// already owns a different abbreviation releases that abbreviation.
func (r *Registry) Register(card ModelCard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[card.ID]; ok && old.Abbreviation != card.Abbreviation {
		delete(r.byAbbrev, old.Abbreviation)
	}
	r.byID[card.ID] = card
	if card.Abbreviation != "" {
		r.byAbbrev[card.Abbreviation] = card.ID
	}
}

// resolve maps an id-or-abbreviation to its canonical id. Caller must hold
// at least a read lock.
func (r *Registry) resolve(idOrAbbrev string) (string, bool) {
	if _, ok := r.byID[idOrAbbrev]; ok {
		return idOrAbbrev, true
	}
	if id, ok := r.byAbbrev[idOrAbbrev]; ok {
		return id, true
	}
	return "", false
}

// Get looks up a ModelCard by either its full id or its abbreviation.
func (r *Registry) Get(idOrAbbrev string) (ModelCard, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.resolve(idOrAbbrev)
	if !ok {
		return ModelCard{}, false
	}
	return r.byID[id], true
}

// Abbreviate returns id's registered abbreviation, if any.
func (r *Registry) Abbreviate(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	card, ok := r.byID[id]
	if !ok || card.Abbreviation == "" {
		return "", false
	}
	return card.Abbreviation, true
}

// Expand reverses Abbreviate.
func (r *Registry) Expand(abbrev string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byAbbrev[abbrev]
	return id, ok
}

// EncodingFor returns the process-singleton Tokenizer for id's registered
// vocabulary.
func (r *Registry) EncodingFor(idOrAbbrev string) (tokenizer.Tokenizer, error) {
	card, ok := r.Get(idOrAbbrev)
	if !ok {
		return nil, m2merr.NewModelNotFoundError(idOrAbbrev)
	}
	return bpe.For(card.Vocab)
}

// ContextLength returns id's context window in tokens.
func (r *Registry) ContextLength(idOrAbbrev string) (uint32, bool) {
	card, ok := r.Get(idOrAbbrev)
	if !ok {
		return 0, false
	}
	return card.ContextLength, true
}

// Pricing returns id's per-token pricing, if the registry has any on file.
func (r *Registry) Pricing(idOrAbbrev string) (header.PricingEntry, bool) {
	card, ok := r.Get(idOrAbbrev)
	if !ok || card.Pricing == nil {
		return header.PricingEntry{}, false
	}
	return *card.Pricing, true
}

// global is the single process-wide Registry instance returned by Global.
var global = NewRegistry()

// Global returns the process-wide Registry instance.
func Global() *Registry { return global }

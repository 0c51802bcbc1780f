// Package ids implements the validated AgentId/OrgId string types used
// throughout key derivation and capability negotiation (spec §3).
package ids

import (
	"fmt"
)

const maxLen = 128

// AgentId is a validated, non-empty identifier for an agent: at most 128
// characters drawn from [A-Za-z0-9_-].
type AgentId string

// OrgId is a validated, non-empty identifier for an organization, with the
// same character-set rule as AgentId.
type OrgId string

// NewAgentId validates s and returns it as an AgentId.
func NewAgentId(s string) (AgentId, error) {
	if err := validate(s); err != nil {
		return "", err
	}
	return AgentId(s), nil
}

// NewOrgId validates s and returns it as an OrgId.
func NewOrgId(s string) (OrgId, error) {
	if err := validate(s); err != nil {
		return "", err
	}
	return OrgId(s), nil
}

func (a AgentId) String() string { return string(a) }
func (o OrgId) String() string   { return string(o) }

func validate(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("ids: identifier must not be empty")
	}
	if len(s) > maxLen {
		return fmt.Errorf("ids: identifier exceeds %d characters", maxLen)
	}
	for _, r := range s {
		if !isAllowed(r) {
			return fmt.Errorf("ids: identifier contains disallowed character %q", r)
		}
	}
	return nil
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	default:
		return false
	}
}

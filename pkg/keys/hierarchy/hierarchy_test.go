package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/infernet-m2m/m2m-core/pkg/ids"
	"github.com/infernet-m2m/m2m-core/pkg/keys"
)

func testMaster(t *testing.T) *keys.Material {
	t.Helper()
	b := make([]byte, 32)
	for i := range b {
		b[i] = byte(i)
	}
	m, err := keys.New(b)
	require.NoError(t, err)
	return m
}

func TestAgentKeyMatchesVector(t *testing.T) {
	t.Parallel()

	master := testMaster(t)
	org, err := ids.NewOrgId("test-org")
	require.NoError(t, err)
	agent, err := ids.NewAgentId("agent-001")
	require.NoError(t, err)

	h := New(master, org)
	defer h.Close()

	k, err := h.AgentKey(agent, 32)
	require.NoError(t, err)
	require.Equal(t, "c87f687fae1cf5991cd0cc64e113ec09750b0d1c41338a41cd8ad90bdd60dba1", hexString(k.Bytes()))
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0x0f]
	}
	return string(out)
}

func TestPairSessionKeySymmetric(t *testing.T) {
	t.Parallel()

	master := testMaster(t)
	org, err := ids.NewOrgId("test-org")
	require.NoError(t, err)
	a, err := ids.NewAgentId("agent-a")
	require.NoError(t, err)
	b, err := ids.NewAgentId("agent-b")
	require.NoError(t, err)

	h := New(master, org)
	defer h.Close()

	k1, err := h.PairSessionKey(a, b, "sess-1", 32)
	require.NoError(t, err)
	k2, err := h.PairSessionKey(b, a, "sess-1", 32)
	require.NoError(t, err)
	require.True(t, k1.Equal(k2))
}

func TestPairSessionKeyDiffersBySession(t *testing.T) {
	t.Parallel()

	master := testMaster(t)
	org, err := ids.NewOrgId("test-org")
	require.NoError(t, err)
	a, err := ids.NewAgentId("agent-a")
	require.NoError(t, err)
	b, err := ids.NewAgentId("agent-b")
	require.NoError(t, err)

	h := New(master, org)
	defer h.Close()

	k1, err := h.PairSessionKey(a, b, "sess-1", 32)
	require.NoError(t, err)
	k2, err := h.PairSessionKey(a, b, "sess-2", 32)
	require.NoError(t, err)
	require.False(t, k1.Equal(k2))
}

func TestDerivationDomainSeparation(t *testing.T) {
	t.Parallel()

	master := testMaster(t)
	org, err := ids.NewOrgId("test-org")
	require.NoError(t, err)
	agent, err := ids.NewAgentId("agent-001")
	require.NoError(t, err)

	h := New(master, org)
	defer h.Close()

	orgKey, err := h.OrgKey(32)
	require.NoError(t, err)
	agentKey, err := h.AgentKey(agent, 32)
	require.NoError(t, err)
	identityKey, err := h.PurposeKey(agent, PurposeIdentity, 32)
	require.NoError(t, err)
	encryptionKey, err := h.PurposeKey(agent, PurposeEncryption, 32)
	require.NoError(t, err)
	sharedKey, err := h.SharedKey(32)
	require.NoError(t, err)

	require.False(t, orgKey.Equal(agentKey))
	require.False(t, agentKey.Equal(identityKey))
	require.False(t, identityKey.Equal(encryptionKey))
	require.False(t, orgKey.Equal(sharedKey))
}

func TestDerivationDeterministic(t *testing.T) {
	t.Parallel()

	master := testMaster(t)
	org, err := ids.NewOrgId("test-org")
	require.NoError(t, err)
	agent, err := ids.NewAgentId("agent-001")
	require.NoError(t, err)

	h1 := New(master, org)
	defer h1.Close()
	h2 := New(master, org)
	defer h2.Close()

	k1, err := h1.AgentKey(agent, 32)
	require.NoError(t, err)
	k2, err := h2.AgentKey(agent, 32)
	require.NoError(t, err)
	require.True(t, k1.Equal(k2))
}

func TestDeriveRejectsOutOfRangeLen(t *testing.T) {
	t.Parallel()

	master := testMaster(t)
	org, err := ids.NewOrgId("test-org")
	require.NoError(t, err)

	h := New(master, org)
	defer h.Close()

	_, err = h.OrgKey(0)
	require.Error(t, err)
	_, err = h.OrgKey(MaxDerivedLen + 1)
	require.Error(t, err)
}

func TestCloseZeroizesMaster(t *testing.T) {
	t.Parallel()

	master := testMaster(t)
	org, err := ids.NewOrgId("test-org")
	require.NoError(t, err)

	h := New(master, org)
	h.Close()
	require.Equal(t, make([]byte, 32), h.master.Bytes())
}

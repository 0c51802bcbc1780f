package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.Error(t, err)
}

func TestCloneIndependence(t *testing.T) {
	t.Parallel()

	m, err := New([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	clone := m.Clone()
	require.True(t, m.Equal(clone))

	clone.Zero()
	require.False(t, m.Equal(clone))
	require.Equal(t, []byte{1, 2, 3, 4}, m.Bytes())
}

func TestZeroWipesBuffer(t *testing.T) {
	t.Parallel()

	m, err := New([]byte{0xAA, 0xBB, 0xCC})
	require.NoError(t, err)
	m.Zero()
	require.Equal(t, []byte{0, 0, 0}, m.Bytes())
}

func TestStringRedacted(t *testing.T) {
	t.Parallel()

	m, err := New([]byte("super-secret"))
	require.NoError(t, err)
	require.NotContains(t, m.String(), "super-secret")
	require.NotContains(t, m.GoString(), "super-secret")
}

func TestKeyringPutGetDelete(t *testing.T) {
	t.Parallel()

	kr := NewKeyring()
	m, err := New([]byte("key-bytes"))
	require.NoError(t, err)
	kr.Put("agent-1", m)

	got, err := kr.Get("agent-1")
	require.NoError(t, err)
	require.True(t, got.Equal(m))

	kr.Delete("agent-1")
	_, err = kr.Get("agent-1")
	require.Error(t, err)
}

func TestKeyringZeroClearsAll(t *testing.T) {
	t.Parallel()

	kr := NewKeyring()
	m1, _ := New([]byte("a"))
	m2, _ := New([]byte("b"))
	kr.Put("a", m1)
	kr.Put("b", m2)

	kr.Zero()
	_, err := kr.Get("a")
	require.Error(t, err)
	_, err = kr.Get("b")
	require.Error(t, err)
}

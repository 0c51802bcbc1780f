package m2merr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressionErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("bad json")
	err := NewCompressionError("invalid JSON", cause)
	require.True(t, IsCompressionError(err))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "invalid JSON")
}

func TestCryptoErrorSubKind(t *testing.T) {
	t.Parallel()

	err := NewCryptoError(CryptoDerivationFailed, errors.New("bad length"))
	require.True(t, IsCryptoError(err))
	var ce *CryptoError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, CryptoDerivationFailed, ce.SubKind)
}

func TestNegotiationFailedErrorCode(t *testing.T) {
	t.Parallel()

	err := NewNegotiationFailedError(RejectNoCommonAlgorithm, "no overlap")
	require.True(t, IsNegotiationFailedError(err))
	require.Equal(t, RejectNoCommonAlgorithm, err.Code)
}

func TestSentinelErrors(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, ErrSessionExpired, ErrSessionExpired)
	require.False(t, errors.Is(ErrSessionExpired, ErrSessionNotEstablished))
}

func TestCollaboratorErrorTypes(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")

	cfgErr := NewConfigError("missing field", cause)
	require.True(t, IsConfigError(cfgErr))
	require.ErrorIs(t, cfgErr, cause)

	ioErr := NewIOError("read failed", cause)
	require.True(t, IsIOError(ioErr))
	require.ErrorIs(t, ioErr, cause)

	jsonErr := NewJSONError("malformed", cause)
	require.True(t, IsJSONError(jsonErr))
	require.ErrorIs(t, jsonErr, cause)

	modelErr := NewModelNotFoundError("gpt-unknown")
	require.True(t, IsModelNotFoundError(modelErr))
	require.Contains(t, modelErr.Error(), "gpt-unknown")

	tokErr := NewTokenizerError("unsupported vocabulary", cause)
	require.True(t, IsTokenizerError(tokErr))
	require.ErrorIs(t, tokErr, cause)
}

package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/predictor"
	"github.com/infernet-m2m/m2m-core/pkg/security"
	"github.com/stretchr/testify/require"
)

type fixedPredictor struct {
	alg algorithm.Algorithm
	err error
}

func (f fixedPredictor) PredictCompression(string) (predictor.Prediction, error) {
	if f.err != nil {
		return predictor.Prediction{}, f.err
	}
	return predictor.Prediction{Algorithm: f.alg, Confidence: 1}, nil
}

type fixedScanner struct {
	verdict security.Verdict
	err     error
}

func (f fixedScanner) ScanAndValidate(string) (security.Verdict, error) {
	if f.err != nil {
		return security.Verdict{}, f.err
	}
	return f.verdict, nil
}

func TestEngineRouteUsesPredictorWhenItSucceeds(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Predictor = fixedPredictor{alg: algorithm.Brotli}
	alg, _ := e.Route("anything, heuristics would say otherwise")
	require.Equal(t, algorithm.Brotli, alg)
}

func TestEngineRouteFallsBackToHeuristicOnPredictorError(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Predictor = fixedPredictor{err: errors.New("model unavailable")}
	alg, _ := e.Route(strings.Repeat("x", 2000))
	require.Equal(t, algorithm.Brotli, alg)
}

func TestEngineCompressDecompressRoundtripNone(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	result, err := e.Compress("tiny")
	require.NoError(t, err)
	require.Equal(t, algorithm.None, result.Algorithm)

	text, alg, err := e.Decompress(result.Data)
	require.NoError(t, err)
	require.Equal(t, algorithm.None, alg)
	require.Equal(t, "tiny", text)
}

func TestEngineCompressDecompressRoundtripBrotli(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	original := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 50)
	result, err := e.Compress(original)
	require.NoError(t, err)
	require.Equal(t, algorithm.Brotli, result.Algorithm)

	text, alg, err := e.Decompress(result.Data)
	require.NoError(t, err)
	require.Equal(t, algorithm.Brotli, alg)
	require.Equal(t, original, text)
}

func TestEngineCompressDecompressRoundtripM2M(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	original := `{"model":"gpt-4o","messages":[{"role":"user","content":"` + strings.Repeat("hello ", 20) + `"}]}`
	result, err := e.Compress(original)
	require.NoError(t, err)
	require.Equal(t, algorithm.M2M, result.Algorithm)

	text, alg, err := e.Decompress(result.Data)
	require.NoError(t, err)
	require.Equal(t, algorithm.M2M, alg)
	require.JSONEq(t, original, text)
}

func TestEngineSecureCompressBlocksUnsafeContent(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Scanner = fixedScanner{verdict: security.Verdict{Safe: false, Threats: []string{"prompt_injection"}}}
	_, err := e.SecureCompress(strings.Repeat("x", 200))
	require.Error(t, err)
	require.True(t, m2merr.IsContentBlockedError(err))
}

func TestEngineSecureCompressAllowsSafeContent(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Scanner = security.AllowAll{}
	result, err := e.SecureCompress("tiny")
	require.NoError(t, err)
	require.Equal(t, algorithm.None, result.Algorithm)
}

func TestEngineSecureCompressPropagatesScannerError(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	e.Scanner = fixedScanner{err: errors.New("scanner unavailable")}
	_, err := e.SecureCompress("tiny")
	require.Error(t, err)
	require.False(t, m2merr.IsContentBlockedError(err))
}

func TestEngineDecompressUnknownPrefixIsIdentity(t *testing.T) {
	t.Parallel()

	e := NewEngine()
	text, alg, err := e.Decompress("plain passthrough text")
	require.NoError(t, err)
	require.Equal(t, algorithm.None, alg)
	require.Equal(t, "plain passthrough text", text)
}

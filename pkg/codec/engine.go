package codec

import (
	"encoding/json"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/brotli"
	"github.com/infernet-m2m/m2m-core/pkg/codec/bpe"
	"github.com/infernet-m2m/m2m-core/pkg/codec/m2m"
	"github.com/infernet-m2m/m2m-core/pkg/header"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/predictor"
	"github.com/infernet-m2m/m2m-core/pkg/security"
)

// CompressionResult is purely informational once a compress call returns
// (spec §3 CompressionResult).
type CompressionResult struct {
	Data             string
	Algorithm        algorithm.Algorithm
	OriginalBytes    int
	CompressedBytes  int
	OriginalTokens   *int
	CompressedTokens *int
}

// Engine is the codec dispatch layer: content analysis, heuristic or ML
// routing, and compress/decompress against the four wire algorithms
// (spec §4.6). Engine values are safe to share across goroutines: they
// hold no mutable state beyond their (typically immutable, process-
// singleton) collaborators.
type Engine struct {
	Pricing   header.PricingTable
	Routing   RoutingConfig
	Predictor predictor.Predictor
	Scanner   security.Scanner
	Vocab     bpe.Vocab
}

// NewEngine builds an Engine with the spec's default routing thresholds,
// cl100k tokenization, and no predictor or scanner configured.
func NewEngine() *Engine {
	return &Engine{Routing: DefaultRoutingConfig(), Vocab: bpe.VocabCl100k}
}

// Route analyzes text and selects an algorithm: the configured
// predictor's choice if it succeeds, else the heuristic table (spec
// §4.6(d)).
func (e *Engine) Route(text string) (algorithm.Algorithm, ContentAnalysis) {
	analysis := Analyze(text)
	if e.Predictor != nil {
		if pred, err := e.Predictor.PredictCompression(text); err == nil {
			return pred.Algorithm, analysis
		}
	}
	return ChooseHeuristic(analysis, e.Routing), analysis
}

// Compress selects an algorithm for text via Route and encodes it.
func (e *Engine) Compress(text string) (CompressionResult, error) {
	alg, analysis := e.Route(text)
	data, err := e.encode(text, alg)
	if err != nil {
		return CompressionResult{}, err
	}
	tokens := analysis.EstimatedTokens
	return CompressionResult{
		Data:            data,
		Algorithm:       alg,
		OriginalBytes:   len(text),
		CompressedBytes: len(data),
		OriginalTokens:  &tokens,
	}, nil
}

// SecureCompress runs the configured scanner against text before
// compressing. A blocking verdict fails ContentBlocked without
// compressing; no scan ever sees post-compression bytes (spec §4.6(e)).
func (e *Engine) SecureCompress(text string) (CompressionResult, error) {
	if e.Scanner != nil {
		verdict, err := e.Scanner.ScanAndValidate(text)
		if err != nil {
			return CompressionResult{}, err
		}
		if verdict.ShouldBlock() {
			return CompressionResult{}, m2merr.NewContentBlockedError(blockReason(verdict))
		}
	}
	return e.Compress(text)
}

func blockReason(v security.Verdict) string {
	if len(v.Threats) > 0 {
		return v.Threats[0]
	}
	return "content blocked by scanner"
}

// Decompress detects wire's algorithm from its prefix and decodes it. An
// unrecognized prefix is treated as identity/plain text (spec §4.6(f)).
func (e *Engine) Decompress(wireText string) (string, algorithm.Algorithm, error) {
	alg := algorithm.Detect(wireText)
	switch alg {
	case algorithm.M2M:
		frame, err := m2m.DecodeString(wireText)
		if err != nil {
			return "", alg, err
		}
		return frame.Payload, alg, nil
	case algorithm.BPETokens:
		text, err := bpe.DecodeString(wireText)
		if err != nil {
			return "", alg, err
		}
		return text, alg, nil
	case algorithm.Brotli:
		text, err := brotli.DecodeWire(wireText)
		if err != nil {
			return "", alg, err
		}
		return text, alg, nil
	default:
		return wireText, algorithm.None, nil
	}
}

func (e *Engine) encode(text string, alg algorithm.Algorithm) (string, error) {
	switch alg {
	case algorithm.M2M:
		var raw map[string]any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return "", m2merr.NewCompressionError("invalid JSON for m2m codec", err)
		}
		schema := header.DetectSchema(raw)
		return m2m.EncodeString(text, schema, e.Pricing)
	case algorithm.BPETokens:
		return bpe.EncodeString(text, e.Vocab)
	case algorithm.Brotli:
		return brotli.EncodeWire(text)
	default:
		return text, nil
	}
}

// Package predictor defines the pluggable ML compression-algorithm router
// ("Hydra", spec §2, §4.6(d)): an optional collaborator that predicts
// which algorithm to use for a given payload instead of the engine's
// built-in heuristic table. The core carries no ML inference itself;
// Predictor is defined only by the interface it exposes.
package predictor

import "github.com/infernet-m2m/m2m-core/pkg/algorithm"

// Prediction is the router's verdict for one compress call.
type Prediction struct {
	Algorithm    algorithm.Algorithm
	Confidence   float64
	PerAlgoProbs map[algorithm.Algorithm]float64
}

// Predictor predicts a compression algorithm for text. The engine falls
// back to heuristic routing whenever PredictCompression returns an error
// (spec §4.6(d)).
type Predictor interface {
	PredictCompression(text string) (Prediction, error)
}

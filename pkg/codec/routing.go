package codec

import "github.com/infernet-m2m/m2m-core/pkg/algorithm"

// RoutingConfig tunes the heuristic router's thresholds (spec §4.6(c)).
type RoutingConfig struct {
	BrotliThreshold int
	PreferM2MForAPI bool
}

// DefaultRoutingConfig matches the spec's documented defaults
// (BROTLI_THRESHOLD = 1024, prefer_m2m_for_api = true).
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{BrotliThreshold: 1024, PreferM2MForAPI: true}
}

// ChooseHeuristic implements the default routing table (spec §4.6(c)):
// very short content passes through uncompressed, large content always
// goes to Brotli, detected LLM API JSON prefers the M2M frame codec when
// configured to, highly repetitive content falls back to Brotli, and
// any other JSON still gets the M2M frame codec for its header
// extraction value.
func ChooseHeuristic(a ContentAnalysis, cfg RoutingConfig) algorithm.Algorithm {
	switch {
	case a.Length < 100:
		return algorithm.None
	case a.Length > cfg.BrotliThreshold:
		return algorithm.Brotli
	case a.IsLLMAPI && cfg.PreferM2MForAPI:
		return algorithm.M2M
	case a.RepetitionRatio > 0.3:
		return algorithm.Brotli
	case a.IsJSON:
		return algorithm.M2M
	default:
		return algorithm.None
	}
}

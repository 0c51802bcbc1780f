// Package codec implements the codec engine and analyzer (spec §4.6): the
// dispatch layer that selects among the four wire algorithms (raw
// passthrough, M2M frame, BPE tokens, Brotli) and performs compress/
// decompress against whichever one is chosen.
package codec

import "encoding/json"

// ContentAnalysis is computed once per compress call and drives heuristic
// routing (spec §3 ContentAnalysis).
type ContentAnalysis struct {
	Length          int
	IsJSON          bool
	IsLLMAPI        bool
	HasTools        bool
	RepetitionRatio float64
	EstimatedTokens int
}

// Analyze computes a ContentAnalysis for text.
func Analyze(text string) ContentAnalysis {
	a := ContentAnalysis{
		Length:          len(text),
		EstimatedTokens: len(text) / 4,
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		a.IsJSON = true
		_, hasMessages := raw["messages"]
		_, hasModel := raw["model"]
		_, hasChoices := raw["choices"]
		a.IsLLMAPI = hasMessages || hasModel || hasChoices

		_, hasTools := raw["tools"]
		_, hasToolCalls := raw["tool_calls"]
		_, hasFunctions := raw["functions"]
		a.HasTools = hasTools || hasToolCalls || hasFunctions
	}

	a.RepetitionRatio = repetitionRatio(text)
	return a
}

// repetitionRatio returns 1 - |unique 4-grams| / |4-gram positions| for
// inputs of at least 100 runes; shorter inputs are defined to have no
// measurable repetition (spec §3, ContentAnalysis.repetition_ratio).
func repetitionRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) < 100 {
		return 0
	}
	total := len(runes) - 3
	seen := make(map[string]struct{}, total)
	for i := 0; i < total; i++ {
		seen[string(runes[i:i+4])] = struct{}{}
	}
	return 1 - float64(len(seen))/float64(total)
}

// Package testutil provides shared fakes for the core's pluggable
// collaborator interfaces (predictor.Predictor, security.Scanner,
// tokenizer.Tokenizer), so packages that exercise the codec engine
// end-to-end don't each hand-roll their own.
package testutil

import (
	"fmt"
	"sync"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/predictor"
	"github.com/infernet-m2m/m2m-core/pkg/security"
)

// FakePredictor is a configurable predictor.Predictor for tests. Every call
// is recorded in Calls. With PredictFunc set the call is delegated to it;
// otherwise Err, if set, is returned, else a fixed Prediction built from
// Algorithm and Confidence.
type FakePredictor struct {
	PredictFunc func(text string) (predictor.Prediction, error)
	Algorithm   algorithm.Algorithm
	Confidence  float64
	Err         error

	mu    sync.Mutex
	Calls []string
}

func (f *FakePredictor) PredictCompression(text string) (predictor.Prediction, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, text)
	f.mu.Unlock()

	if f.PredictFunc != nil {
		return f.PredictFunc(text)
	}
	if f.Err != nil {
		return predictor.Prediction{}, f.Err
	}
	return predictor.Prediction{Algorithm: f.Algorithm, Confidence: f.Confidence}, nil
}

// CallCount returns how many times PredictCompression has been invoked.
func (f *FakePredictor) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// FakeScanner is a configurable security.Scanner for tests.
type FakeScanner struct {
	ScanFunc func(text string) (security.Verdict, error)
	Verdict  security.Verdict
	Err      error

	mu    sync.Mutex
	Calls []string
}

func (f *FakeScanner) ScanAndValidate(text string) (security.Verdict, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, text)
	f.mu.Unlock()

	if f.ScanFunc != nil {
		return f.ScanFunc(text)
	}
	if f.Err != nil {
		return security.Verdict{}, f.Err
	}
	return f.Verdict, nil
}

// CallCount returns how many times ScanAndValidate has been invoked.
func (f *FakeScanner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// FakeTokenizer is a deterministic tokenizer.Tokenizer for tests that need
// a Tokenize/Detokenize pair without pulling in the real BPE vocabulary:
// it maps each byte of the input to one token id (its byte value), so
// Detokenize(Tokenize(t)) == t holds trivially for any t.
type FakeTokenizer struct {
	TokenizeErr   error
	DetokenizeErr error
}

func (f *FakeTokenizer) Tokenize(text string) ([]uint32, error) {
	if f.TokenizeErr != nil {
		return nil, f.TokenizeErr
	}
	ids := make([]uint32, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = uint32(text[i])
	}
	return ids, nil
}

func (f *FakeTokenizer) Detokenize(ids []uint32) (string, error) {
	if f.DetokenizeErr != nil {
		return "", f.DetokenizeErr
	}
	buf := make([]byte, len(ids))
	for i, id := range ids {
		if id > 255 {
			return "", fmt.Errorf("testutil: fake tokenizer id %d out of byte range", id)
		}
		buf[i] = byte(id)
	}
	return string(buf), nil
}

// Package brotli wraps github.com/andybalholm/brotli for the two uses the
// M2M core makes of Brotli: compressing M2M frame payloads when the
// COMPRESSED flag is set (§4.4), and the standalone Brotli wire codec
// (§4.6/§6) used for large or highly repetitive content.
package brotli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// Quality and Window are the fixed Brotli encoder parameters mandated by
// spec §4.4 ("quality 5, window 22"). They are not tunable per call so that
// encode and decode stay trivially consistent across the wire.
const (
	Quality = 5
	Window  = 22
)

// Compress returns the Brotli-compressed form of data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterOptions(&buf, brotli.WriterOptions{Quality: Quality, LGWin: Window})
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("brotli: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("brotli: compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress returns the decompressed form of Brotli-compressed data.
func Decompress(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("brotli: decompress: %w", err)
	}
	return out, nil
}

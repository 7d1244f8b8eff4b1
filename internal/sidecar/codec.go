package sidecar

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
)

// gzipOSUnknown is the RFC 1952 OS byte for "unknown", used so two writes of
// the same vector produce byte-identical sidecar files regardless of the
// host platform.
const gzipOSUnknown = 255

// gzipLevel is the fixed deflate level the spec's byte format is defined
// against.
const gzipLevel = 6

// EncodeVector returns raw_f32_bytes for vec (little-endian IEEE-754
// binary32, dimension * 4 bytes).
func EncodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector parses raw_f32_bytes back into a vector.
func DecodeVector(raw []byte) []float32 {
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec
}

// Checksum returns the SHA-256 hex digest of a vector's raw bytes, the
// identity the manifest uses to decide whether a sidecar write is a no-op.
func Checksum(vec []float32) string {
	sum := sha256.Sum256(EncodeVector(vec))
	return hex.EncodeToString(sum[:])
}

// Compress gzips raw vector bytes with the deterministic header the format
// requires: magic 1F 8B, method 08, flags 00, MTIME 0, XFL 0, OS 0xFF,
// deflate at level 6, trailed by CRC32 and ISIZE. Leaving gzip.Writer's
// ModTime at its zero value keeps MTIME at 0 (the stdlib only emits a
// non-zero MTIME when ModTime is after the Unix epoch).
func Compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzipLevel)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	gz.OS = gzipOSUnknown

	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("compress vector: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("finalize gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress vector: %w", err)
	}
	return raw, nil
}

// EncodeSidecar produces the full on-disk sidecar payload for a vector.
func EncodeSidecar(vec []float32) ([]byte, error) {
	return Compress(EncodeVector(vec))
}

// DecodeSidecar reverses EncodeSidecar.
func DecodeSidecar(data []byte) ([]float32, error) {
	raw, err := Decompress(data)
	if err != nil {
		return nil, err
	}
	return DecodeVector(raw), nil
}

package filecrypt

import (
	"bytes"
	"strings"
	"testing"
)

func TestZstdRoundTrip(t *testing.T) {
	payload := []byte(strings.Repeat("compressible content ", 200))

	compressed, err := zstdCompress(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(compressed) >= len(payload) {
		t.Fatalf("expected compression to shrink repetitive payload: %d >= %d", len(compressed), len(payload))
	}

	decompressed, err := zstdDecompress(compressed, len(payload))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decompressed, payload) {
		t.Fatal("round trip mismatch")
	}
}

func TestZstdDecompressHardCap(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 10000)
	compressed, err := zstdCompress(payload)
	if err != nil {
		t.Fatal(err)
	}

	_, err = zstdDecompress(compressed, 100)
	if !IsFormatError(err) {
		t.Fatalf("expected FormatError when decompressed size exceeds cap, got %v", err)
	}
}

func TestMaxCiphertextLen(t *testing.T) {
	plain := maxCiphertextLen(1024, CompressionNone)
	if plain != 1024+AEADTagSize {
		t.Fatalf("plain bound = %d, want %d", plain, 1024+AEADTagSize)
	}

	compressed := maxCiphertextLen(1024, CompressionZstd)
	if compressed <= plain {
		t.Fatalf("compressed bound %d should exceed plain bound %d to tolerate expansion", compressed, plain)
	}
}

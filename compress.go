package filecrypt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdCompress compresses payload at ZstdCompressionLevel and returns the
// compressed frame. Level is fixed per §6 (archive and per-chunk payload
// compression both use level 3); a variable level is not representable on
// the wire since only compression_algorithm and compression_level are
// stored once per container, not per chunk.
func zstdCompress(payload []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(payload, nil), nil
}

// zstdDecompress decompresses src, refusing to produce more than maxSize
// bytes of output. This is the "hard output cap" required by §4.7 to defeat
// decompression bombs at the per-chunk level: decoding is streamed through
// an io.LimitReader capped at maxSize+1, so a bomb never gets to inflate
// past the cap before the cap is enforced, unlike a one-shot DecodeAll
// which would first materialise the full (attacker-controlled) output.
func zstdDecompress(src []byte, maxSize int) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := io.ReadAll(io.LimitReader(dec, int64(maxSize)+1))
	if err != nil {
		return nil, &FormatError{Reason: "zstd decompression failed", Err: err}
	}
	if len(out) > maxSize {
		return nil, &FormatError{Reason: fmt.Sprintf("decompressed chunk size exceeds expected %d", maxSize)}
	}
	return out, nil
}

// zstdCompressBound returns an upper bound on the compressed size of a
// chunkSize-byte input, matching the bound the reference zstd library
// documents for its own compress-bound helper (input plus a small frame
// overhead margin that is always sufficient regardless of compressibility).
func zstdCompressBound(chunkSize int) int {
	return chunkSize + (chunkSize >> 8) + 64
}

// maxCiphertextLen returns the largest legal ciphertext+tag length for a
// chunk of chunkSize plaintext bytes under the given compression algorithm.
// Both the encryptor (to size its output buffer) and the decryptor (to
// reject over-length frames before reading them) must use this same bound;
// using the uncompressed bound to validate compressed frames would reject
// legitimate files whose payload expanded slightly under ZSTD.
func maxCiphertextLen(chunkSize int, alg CompressionAlgorithm) int {
	if alg == CompressionZstd {
		return zstdCompressBound(chunkSize) + AEADTagSize
	}
	return chunkSize + AEADTagSize
}

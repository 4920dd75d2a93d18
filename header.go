package filecrypt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ContainerHeader is the common prefix plus version-conditional fields
// described in §6. It is built once per encryption and parsed once per
// decryption; the exact bytes read back from disk are reused verbatim as
// AEAD associated data for every chunk, so any bit flipped in the header
// causes every chunk's tag check to fail.
type ContainerHeader struct {
	Version     ContainerVersion
	Kdf         KdfParameters
	Salt        []byte
	BaseNonce   [AEADNonceSize]byte
	ChunkSize   uint32
	TotalChunks uint64

	// V5/V7 only.
	CompressionAlgorithm CompressionAlgorithm
	CompressionLevel     uint8
	OriginalSize         uint64

	// V6/V7 only.
	Flags byte
}

// KeyFileUsed reports whether the flags byte marks key-file mixing.
func (h *ContainerHeader) KeyFileUsed() bool {
	return h.Version.HasFlags() && h.Flags&flagKeyFileUsed != 0
}

// Compressed reports whether chunk payloads were ZSTD-compressed.
func (h *ContainerHeader) Compressed() bool {
	return h.Version.HasCompression() && h.CompressionAlgorithm == CompressionZstd
}

// Encode serialises the header per the byte layout in §6 and returns the
// exact bytes that must later be used as AAD.
func (h *ContainerHeader) Encode() ([]byte, error) {
	if !h.Version.IsSupported() {
		return nil, &FormatError{Reason: fmt.Sprintf("unsupported container version %d", h.Version)}
	}
	if err := h.Kdf.Validate(); err != nil {
		return nil, err
	}
	if uint32(len(h.Salt)) != h.Kdf.SaltLength {
		return nil, &FormatError{Reason: "salt length does not match kdf_salt_length"}
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(h.Version))
	binary.Write(&buf, binary.LittleEndian, h.Kdf.SaltLength)
	buf.WriteByte(byte(h.Kdf.Algorithm))
	binary.Write(&buf, binary.LittleEndian, h.Kdf.MemoryCostKiB)
	binary.Write(&buf, binary.LittleEndian, h.Kdf.TimeCost)
	binary.Write(&buf, binary.LittleEndian, h.Kdf.Parallelism)
	binary.Write(&buf, binary.LittleEndian, h.Kdf.KeyLength)
	buf.Write(h.Salt)
	buf.Write(h.BaseNonce[:])
	binary.Write(&buf, binary.LittleEndian, h.ChunkSize)
	binary.Write(&buf, binary.LittleEndian, h.TotalChunks)

	if h.Version.HasCompression() {
		buf.WriteByte(byte(h.CompressionAlgorithm))
		buf.WriteByte(h.CompressionLevel)
		binary.Write(&buf, binary.LittleEndian, h.OriginalSize)
	}
	if h.Version.HasFlags() {
		buf.WriteByte(h.Flags)
	}

	return buf.Bytes(), nil
}

// DecodeHeader reads and validates a container header from r, returning the
// parsed struct and the exact bytes read (for use as AAD). Every validation
// failure is a FormatError; nothing here can produce an InvalidPasswordError.
func DecodeHeader(r io.Reader) (*ContainerHeader, []byte, error) {
	var raw bytes.Buffer
	tee := io.TeeReader(r, &raw)

	var h ContainerHeader

	var versionByte byte
	if err := binary.Read(tee, binary.LittleEndian, &versionByte); err != nil {
		return nil, nil, err
	}
	h.Version = ContainerVersion(versionByte)
	if !h.Version.IsSupported() {
		return nil, nil, &FormatError{Reason: fmt.Sprintf("unsupported container version %d", versionByte)}
	}

	if err := binary.Read(tee, binary.LittleEndian, &h.Kdf.SaltLength); err != nil {
		return nil, nil, err
	}
	if h.Kdf.SaltLength < 16 || h.Kdf.SaltLength > 64 {
		return nil, nil, &FormatError{Reason: fmt.Sprintf("salt_length %d out of range [16, 64]", h.Kdf.SaltLength)}
	}

	var algByte byte
	if err := binary.Read(tee, binary.LittleEndian, &algByte); err != nil {
		return nil, nil, err
	}
	h.Kdf.Algorithm = KdfAlgorithm(algByte)

	if err := binary.Read(tee, binary.LittleEndian, &h.Kdf.MemoryCostKiB); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.Kdf.TimeCost); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.Kdf.Parallelism); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.Kdf.KeyLength); err != nil {
		return nil, nil, err
	}
	if err := h.Kdf.Validate(); err != nil {
		return nil, nil, err
	}

	h.Salt = make([]byte, h.Kdf.SaltLength)
	if _, err := io.ReadFull(tee, h.Salt); err != nil {
		return nil, nil, err
	}
	if _, err := io.ReadFull(tee, h.BaseNonce[:]); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.ChunkSize); err != nil {
		return nil, nil, err
	}
	if h.ChunkSize < 1 || h.ChunkSize > MaxChunkSize {
		return nil, nil, &FormatError{Reason: fmt.Sprintf("chunk_size %d out of range [1, %d]", h.ChunkSize, MaxChunkSize)}
	}
	if err := binary.Read(tee, binary.LittleEndian, &h.TotalChunks); err != nil {
		return nil, nil, err
	}
	if h.TotalChunks > MaxTotalChunks {
		return nil, nil, &FormatError{Reason: fmt.Sprintf("total_chunks %d exceeds maximum %d", h.TotalChunks, MaxTotalChunks)}
	}

	if h.Version.HasCompression() {
		var algByte byte
		if err := binary.Read(tee, binary.LittleEndian, &algByte); err != nil {
			return nil, nil, err
		}
		h.CompressionAlgorithm = CompressionAlgorithm(algByte)
		if h.CompressionAlgorithm != CompressionNone && h.CompressionAlgorithm != CompressionZstd {
			return nil, nil, &FormatError{Reason: fmt.Sprintf("unknown compression algorithm %d", algByte)}
		}
		if err := binary.Read(tee, binary.LittleEndian, &h.CompressionLevel); err != nil {
			return nil, nil, err
		}
		if err := binary.Read(tee, binary.LittleEndian, &h.OriginalSize); err != nil {
			return nil, nil, err
		}
		if h.OriginalSize > h.TotalChunks*uint64(h.ChunkSize) {
			return nil, nil, &FormatError{Reason: "original_size exceeds total_chunks * chunk_size"}
		}
	}

	if h.Version.HasFlags() {
		if err := binary.Read(tee, binary.LittleEndian, &h.Flags); err != nil {
			return nil, nil, err
		}
		if h.Flags&^flagKeyFileUsed != 0 {
			return nil, nil, &FormatError{Reason: "reserved flag bits must be zero"}
		}
	}

	return &h, raw.Bytes(), nil
}

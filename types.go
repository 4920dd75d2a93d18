package filecrypt

// ContainerVersion identifies the on-disk container layout. Each version adds
// fields to the common header prefix; none of them change chunk-frame layout.
type ContainerVersion uint8

const (
	// VersionPlain is the baseline container: no compression, no key-file.
	VersionPlain ContainerVersion = 4
	// VersionCompressed adds the compression fields (V5).
	VersionCompressed ContainerVersion = 5
	// VersionKeyFile adds the flags byte for key-file mixing (V6).
	VersionKeyFile ContainerVersion = 6
	// VersionCompressedKeyFile carries both extensions (V7).
	VersionCompressedKeyFile ContainerVersion = 7
)

// IsSupported reports whether v is one of the four recognised versions.
func (v ContainerVersion) IsSupported() bool {
	switch v {
	case VersionPlain, VersionCompressed, VersionKeyFile, VersionCompressedKeyFile:
		return true
	default:
		return false
	}
}

// HasCompression reports whether this version carries the compression fields.
func (v ContainerVersion) HasCompression() bool {
	return v == VersionCompressed || v == VersionCompressedKeyFile
}

// HasFlags reports whether this version carries the trailing flags byte.
func (v ContainerVersion) HasFlags() bool {
	return v == VersionKeyFile || v == VersionCompressedKeyFile
}

// CompressionAlgorithm identifies the per-chunk payload compression, if any.
type CompressionAlgorithm uint8

const (
	// CompressionNone stores chunk payloads uncompressed.
	CompressionNone CompressionAlgorithm = 0
	// CompressionZstd compresses each chunk payload with Zstandard before sealing.
	CompressionZstd CompressionAlgorithm = 1
)

// KdfAlgorithm identifies the password-based key derivation function. Only
// Argon2id is defined on the wire; any other value is a parse failure.
type KdfAlgorithm uint8

const (
	// KdfArgon2id is the only supported KDF algorithm (wire value 1).
	KdfArgon2id KdfAlgorithm = 1
)

// Header flag bits (V6/V7 only).
const (
	flagKeyFileUsed byte = 1 << 0
)

// Size limits shared by the header codec, the streaming pipeline, and the
// archive bundler.
const (
	// AEADNonceSize is the AES-256-GCM nonce length in bytes.
	AEADNonceSize = 12
	// AEADTagSize is the AES-256-GCM authentication tag length in bytes.
	AEADTagSize = 16
	// AEADKeySize is the only supported derived-key length: AES-256.
	AEADKeySize = 32

	// DefaultChunkSize is used when a caller requests chunk_size == 0.
	DefaultChunkSize = 1 << 20 // 1 MiB
	// MaxChunkSize is the largest permitted plaintext chunk size.
	MaxChunkSize = 16 << 20 // 16 MiB

	// MaxTotalChunks bounds a container to roughly 10 TB at 1 MiB chunks.
	MaxTotalChunks = 10_000_000

	// MaxKeyFileSize bounds key-file hashing to a sane, boundable read.
	MaxKeyFileSize = 10 << 20 // 10 MiB
	// KeyFileHashChunkSize is the streaming read size used while hashing a key-file.
	KeyFileHashChunkSize = 8 << 10 // 8 KiB

	// MaxBatchFiles caps the number of inputs a single archive operation accepts.
	MaxBatchFiles = 1000

	// ZstdCompressionLevel is the per-chunk compression level recorded in
	// V5/V7 headers.
	ZstdCompressionLevel = 3

	// ArchiveBombRatio and ArchiveBombAbsoluteCap jointly bound decompressed
	// archive size: effective cap = min(archive_size*ArchiveBombRatio, ArchiveBombAbsoluteCap).
	ArchiveBombRatio       = 100
	ArchiveBombAbsoluteCap = 10 << 30 // 10 GiB
)

// chunkNonceDomainTag domain-separates chunk-nonce derivation from any other
// use of BLAKE3 in this package.
const chunkNonceDomainTag = "filecrypter-chunk-nonce-v1"

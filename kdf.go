package filecrypt

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/argon2"
)

// KdfParameters are the Argon2id parameters embedded in every container
// header and authenticated as part of the AAD. Validate must pass before any
// KDF call; invalid values are a format error, never a silent clamp.
type KdfParameters struct {
	Algorithm     KdfAlgorithm
	MemoryCostKiB uint32
	TimeCost      uint32
	Parallelism   uint32
	KeyLength     uint32
	SaltLength    uint32
}

// DefaultKdfParameters returns the recommended parameter set: 64 MiB, 3
// passes, 4 lanes, a 32-byte key, and a 16-byte salt.
func DefaultKdfParameters() KdfParameters {
	return KdfParameters{
		Algorithm:     KdfArgon2id,
		MemoryCostKiB: 65536,
		TimeCost:      3,
		Parallelism:   4,
		KeyLength:     32,
		SaltLength:    16,
	}
}

// Validate enforces the ranges from the data model. Every violation is
// reported as a FormatError so callers never silently clamp a parameter.
func (p KdfParameters) Validate() error {
	if p.Algorithm != KdfArgon2id {
		return &FormatError{Reason: fmt.Sprintf("unknown kdf algorithm %d", p.Algorithm)}
	}
	if p.MemoryCostKiB < 8192 || p.MemoryCostKiB > 262144 {
		return &FormatError{Reason: fmt.Sprintf("kdf memory cost %d KiB out of range [8192, 262144]", p.MemoryCostKiB)}
	}
	if p.TimeCost < 1 || p.TimeCost > 10 {
		return &FormatError{Reason: fmt.Sprintf("kdf time cost %d out of range [1, 10]", p.TimeCost)}
	}
	if p.Parallelism < 1 || p.Parallelism > 16 {
		return &FormatError{Reason: fmt.Sprintf("kdf parallelism %d out of range [1, 16]", p.Parallelism)}
	}
	if p.KeyLength != 32 {
		return &FormatError{Reason: fmt.Sprintf("kdf key length %d must be 32 (AES-256 only)", p.KeyLength)}
	}
	if p.SaltLength < 16 || p.SaltLength > 64 {
		return &FormatError{Reason: fmt.Sprintf("kdf salt length %d out of range [16, 64]", p.SaltLength)}
	}
	return nil
}

// GenerateSalt returns n cryptographically random bytes.
func GenerateSalt(n uint32) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKeyWithParams runs Argon2id over material (password bytes, or
// password||keyfile-hash) with the given salt and parameters, returning a
// 32-byte DerivedKey wrapped for zeroization. salt must equal
// params.SaltLength in length; this is checked in addition to the range
// check already performed by Validate.
func DeriveKeyWithParams(material, salt []byte, params KdfParameters) (*SecureBytes, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if uint32(len(salt)) != params.SaltLength {
		return nil, &FormatError{Reason: fmt.Sprintf("salt length %d does not match declared kdf salt_length %d", len(salt), params.SaltLength)}
	}

	key := argon2.IDKey(material, salt, params.TimeCost, params.MemoryCostKiB, uint8(params.Parallelism), params.KeyLength)
	return NewSecureBytes(key), nil
}

// DeriveChunkNonce derives the 96-bit AEAD nonce for chunkIndex from the
// per-file baseNonce via a domain-separated BLAKE3 hash:
//
//	h = BLAKE3()
//	h.update("filecrypter-chunk-nonce-v1")
//	h.update(baseNonce)             // 12 bytes
//	h.update(chunkIndex as LE u64)  // 8 bytes
//	nonce = first 12 bytes of h.finalize()
//
// The function is pure: identical inputs always yield the identical nonce,
// and distinct chunk indices under the same base nonce yield distinct
// outputs with overwhelming probability.
func DeriveChunkNonce(baseNonce [AEADNonceSize]byte, chunkIndex uint64) [AEADNonceSize]byte {
	h := blake3.New()
	h.Write([]byte(chunkNonceDomainTag))
	h.Write(baseNonce[:])

	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], chunkIndex)
	h.Write(idx[:])

	digest := h.Sum(nil)
	var nonce [AEADNonceSize]byte
	copy(nonce[:], digest[:AEADNonceSize])
	return nonce
}

// GenerateBaseNonce returns a fresh 96-bit base nonce from the CSPRNG, XORed
// byte-wise with the current nanosecond wall-clock time as defence-in-depth
// against a CSPRNG whose state was rolled back (e.g. VM snapshot restore).
// The CSPRNG remains the primary source of uniqueness.
func GenerateBaseNonce(nowNanos int64) ([AEADNonceSize]byte, error) {
	var nonce [AEADNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, fmt.Errorf("generate base nonce: %w", err)
	}
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(nowNanos))
	for i := 0; i < AEADNonceSize; i++ {
		nonce[i] ^= ts[i%len(ts)]
	}
	return nonce, nil
}

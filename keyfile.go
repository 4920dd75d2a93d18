package filecrypt

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// HashKeyFile reads path in KeyFileHashChunkSize chunks into a BLAKE3 hasher
// and returns the 32-byte digest wrapped for zeroization. path must be a
// non-empty regular file no larger than MaxKeyFileSize.
func HashKeyFile(path string) (*SecureBytes, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, &KeyFileError{Path: path, Reason: "not a regular file"}
	}
	if info.Size() == 0 {
		return nil, &KeyFileError{Path: path, Reason: "empty"}
	}
	if info.Size() > MaxKeyFileSize {
		return nil, &KeyFileError{Path: path, Reason: "too large"}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, KeyFileHashChunkSize)
	// The wrappers hide WriterTo/ReaderFrom so that CopyBuffer really uses buf.
	if _, err := io.CopyBuffer(struct{ io.Writer }{h}, struct{ io.Reader }{f}, buf); err != nil {
		return nil, fmt.Errorf("hash key-file: %w", err)
	}

	return NewSecureBytes(h.Sum(nil)), nil
}

// GenerateKeyFile writes 32 CSPRNG bytes to path with owner-only permissions.
func GenerateKeyFile(path string) error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate key-file: %w", err)
	}
	return os.WriteFile(path, buf, 0o600)
}

// CombinePasswordAndKeyFile concatenates password bytes and a key-file hash
// (password || hash, no separator) into the material fed to the KDF.
func CombinePasswordAndKeyFile(password *Password, hash *SecureBytes) *SecureBytes {
	combined := make([]byte, 0, password.Len()+len(hash.Bytes()))
	combined = append(combined, password.Bytes()...)
	combined = append(combined, hash.Bytes()...)
	return NewSecureBytes(combined)
}

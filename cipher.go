package filecrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// CipherEngine provides AEAD sealing and opening over a fixed key. The
// container format (§6) pins AES-256-GCM as the only algorithm; the
// interface exists so the streaming loop in encrypt.go/decrypt.go never
// touches crypto/cipher directly.
type CipherEngine interface {
	// Seal encrypts plaintext with nonce and aad, returning ciphertext||tag.
	Seal(nonce, plaintext, aad []byte) []byte
	// Open authenticates and decrypts ciphertext||tag with nonce and aad.
	Open(nonce, ciphertext, aad []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}

// AESGCMEngine implements CipherEngine using AES-256-GCM, the only algorithm
// the container format names (§6: AEAD parameters).
type AESGCMEngine struct {
	aead cipher.AEAD
}

// NewAESGCMEngine builds an AES-256-GCM engine from a 32-byte key.
func NewAESGCMEngine(key []byte) (*AESGCMEngine, error) {
	if len(key) != AEADKeySize {
		return nil, fmt.Errorf("AES-256-GCM requires a %d-byte key, got %d", AEADKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &AESGCMEngine{aead: aead}, nil
}

func (e *AESGCMEngine) Seal(nonce, plaintext, aad []byte) []byte {
	return e.aead.Seal(nil, nonce, plaintext, aad)
}

func (e *AESGCMEngine) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	return e.aead.Open(nil, nonce, ciphertext, aad)
}

func (e *AESGCMEngine) NonceSize() int { return e.aead.NonceSize() }
func (e *AESGCMEngine) Overhead() int  { return e.aead.Overhead() }

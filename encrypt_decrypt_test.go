package filecrypt

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempInput(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// Scenario 1: Round-trip, V4, tiny.
func TestScenarioRoundTripV4Tiny(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("Hello, streaming encryption! This is test content.")
	in := writeTempInput(t, dir, "plain.txt", plaintext)
	enc := filepath.Join(dir, "plain.enc")
	out := filepath.Join(dir, "plain.dec")

	pw := NewPassword([]byte("pw1"))
	defer pw.Release()

	if err := EncryptFile(in, enc, pw, EncryptOptions{ChunkSize: 1024}); err != nil {
		t.Fatal(err)
	}

	encBytes, err := os.ReadFile(enc)
	if err != nil {
		t.Fatal(err)
	}
	if encBytes[0] != 4 {
		t.Fatalf("first byte = %d, want 4 (VersionPlain)", encBytes[0])
	}

	if err := DecryptFile(enc, out, pw, DecryptOptions{}); err != nil {
		t.Fatal(err)
	}
	decBytes, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decBytes, plaintext) {
		t.Fatalf("decrypted = %q, want %q", decBytes, plaintext)
	}
}

// Scenario 2: Round-trip, V5, compressible.
func TestScenarioRoundTripV5Compressible(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte(strings.Repeat("Hello, streaming encryption! ", 100))
	in := writeTempInput(t, dir, "plain.txt", plaintext)
	enc := filepath.Join(dir, "plain.enc")
	out := filepath.Join(dir, "plain.dec")

	pw := NewPassword([]byte("pw2"))
	defer pw.Release()

	if err := EncryptFile(in, enc, pw, EncryptOptions{ChunkSize: 1024, Compress: true}); err != nil {
		t.Fatal(err)
	}

	encBytes, err := os.ReadFile(enc)
	if err != nil {
		t.Fatal(err)
	}
	if encBytes[0] != 5 {
		t.Fatalf("first byte = %d, want 5 (VersionCompressed)", encBytes[0])
	}
	if len(encBytes) >= len(plaintext) {
		t.Fatalf("expected compressed output to be smaller: %d >= %d", len(encBytes), len(plaintext))
	}

	if err := DecryptFile(enc, out, pw, DecryptOptions{}); err != nil {
		t.Fatal(err)
	}
	decBytes, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decBytes, plaintext) {
		t.Fatal("decrypted content does not match plaintext")
	}
}

// Scenario 3: Round-trip, V7, key-file.
func TestScenarioRoundTripV7KeyFile(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte(strings.Repeat("Compressible content ", 100))
	in := writeTempInput(t, dir, "plain.txt", plaintext)
	enc := filepath.Join(dir, "plain.enc")
	out := filepath.Join(dir, "plain.dec")

	keyFile := filepath.Join(dir, "key.bin")
	if err := GenerateKeyFile(keyFile); err != nil {
		t.Fatal(err)
	}
	otherKeyFile := filepath.Join(dir, "other.bin")
	if err := GenerateKeyFile(otherKeyFile); err != nil {
		t.Fatal(err)
	}

	pw := NewPassword([]byte("pw3"))
	defer pw.Release()

	if err := EncryptFile(in, enc, pw, EncryptOptions{ChunkSize: 1024, Compress: true, KeyFilePath: keyFile}); err != nil {
		t.Fatal(err)
	}

	encBytes, err := os.ReadFile(enc)
	if err != nil {
		t.Fatal(err)
	}
	if encBytes[0] != 7 {
		t.Fatalf("first byte = %d, want 7 (VersionCompressedKeyFile)", encBytes[0])
	}

	if err := DecryptFile(enc, out, pw, DecryptOptions{KeyFilePath: keyFile}); err != nil {
		t.Fatal(err)
	}
	decBytes, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decBytes, plaintext) {
		t.Fatal("decrypted content does not match plaintext")
	}

	noKeyOut := filepath.Join(dir, "nokey.dec")
	err = DecryptFile(enc, noKeyOut, pw, DecryptOptions{})
	if !IsKeyFileRequired(err) {
		t.Fatalf("expected KeyFileRequiredError, got %v", err)
	}

	wrongKeyOut := filepath.Join(dir, "wrongkey.dec")
	err = DecryptFile(enc, wrongKeyOut, pw, DecryptOptions{KeyFilePath: otherKeyFile})
	if !IsInvalidPassword(err) {
		t.Fatalf("expected InvalidPasswordError for wrong key-file, got %v", err)
	}
}

// Scenario 4: Empty-file authentication.
func TestScenarioEmptyFileAuthentication(t *testing.T) {
	dir := t.TempDir()
	in := writeTempInput(t, dir, "empty.txt", nil)
	enc := filepath.Join(dir, "empty.enc")
	out := filepath.Join(dir, "empty.dec")

	pw4 := NewPassword([]byte("pw4"))
	defer pw4.Release()

	if err := EncryptFile(in, enc, pw4, EncryptOptions{}); err != nil {
		t.Fatal(err)
	}

	encBytes, err := os.ReadFile(enc)
	if err != nil {
		t.Fatal(err)
	}
	headerOnly := &ContainerHeader{Version: VersionPlain, Kdf: DefaultKdfParameters(), Salt: make([]byte, 16)}
	headerBytesLen := len(mustEncode(t, headerOnly))
	if len(encBytes) <= headerBytesLen+4+AEADTagSize-1 {
		// at minimum: header + 4-byte length prefix + 16-byte tag
	}
	if len(encBytes) < headerBytesLen+4+AEADTagSize {
		t.Fatalf("encrypted empty file too short: %d bytes", len(encBytes))
	}

	if err := DecryptFile(enc, out, pw4, DecryptOptions{}); err != nil {
		t.Fatal(err)
	}
	decBytes, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(decBytes) != 0 {
		t.Fatalf("expected empty plaintext, got %d bytes", len(decBytes))
	}

	pw5 := NewPassword([]byte("pw5"))
	defer pw5.Release()
	out2 := filepath.Join(dir, "empty2.dec")
	err = DecryptFile(enc, out2, pw5, DecryptOptions{})
	if !IsInvalidPassword(err) {
		t.Fatalf("expected InvalidPasswordError, got %v", err)
	}
}

func mustEncode(t *testing.T, h *ContainerHeader) []byte {
	t.Helper()
	b, err := h.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// Scenario 5: Header tamper (flip a byte within the declared salt).
func TestScenarioHeaderTamperSaltByte(t *testing.T) {
	dir := t.TempDir()
	plaintext := []byte("some plaintext content for tampering")
	in := writeTempInput(t, dir, "plain.txt", plaintext)
	enc := filepath.Join(dir, "plain.enc")
	out := filepath.Join(dir, "plain.dec")

	pw := NewPassword([]byte("pw-tamper"))
	defer pw.Release()

	if err := EncryptFile(in, enc, pw, EncryptOptions{ChunkSize: 1024}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(enc)
	if err != nil {
		t.Fatal(err)
	}
	// Salt starts at offset 22 in the common prefix (version+salt_length+kdf fields).
	saltOffset := 22
	data[saltOffset] ^= 0xFF
	if err := os.WriteFile(enc, data, 0o600); err != nil {
		t.Fatal(err)
	}

	err = DecryptFile(enc, out, pw, DecryptOptions{})
	if !IsInvalidPassword(err) {
		t.Fatalf("expected InvalidPasswordError for tampered salt, got %v", err)
	}
	if _, statErr := os.Stat(out); statErr == nil {
		t.Fatal("no output file should be materialised after a failed decrypt")
	}
}

// Scenario 6: Multi-chunk round-trip.
func TestScenarioMultiChunkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	plaintext := make([]byte, 5*1024)
	for i := range plaintext {
		plaintext[i] = byte(i % 256)
	}
	in := writeTempInput(t, dir, "plain.bin", plaintext)
	enc := filepath.Join(dir, "plain.enc")
	out := filepath.Join(dir, "plain.dec")

	pw := NewPassword([]byte("multi-chunk-pw"))
	defer pw.Release()

	if err := EncryptFile(in, enc, pw, EncryptOptions{ChunkSize: 1024}); err != nil {
		t.Fatal(err)
	}
	if err := DecryptFile(enc, out, pw, DecryptOptions{}); err != nil {
		t.Fatal(err)
	}

	decBytes, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decBytes, plaintext) {
		t.Fatal("byte-for-byte mismatch on multi-chunk round trip")
	}
}

func TestWrongPasswordRejected(t *testing.T) {
	dir := t.TempDir()
	in := writeTempInput(t, dir, "plain.txt", []byte("secret data"))
	enc := filepath.Join(dir, "plain.enc")
	out := filepath.Join(dir, "plain.dec")

	pw := NewPassword([]byte("right-password"))
	defer pw.Release()
	if err := EncryptFile(in, enc, pw, EncryptOptions{}); err != nil {
		t.Fatal(err)
	}

	wrong := NewPassword([]byte("wrong-password"))
	defer wrong.Release()
	err := DecryptFile(enc, out, wrong, DecryptOptions{})
	if !IsInvalidPassword(err) {
		t.Fatalf("expected InvalidPasswordError, got %v", err)
	}
}

func TestTruncationDetected(t *testing.T) {
	dir := t.TempDir()
	plaintext := make([]byte, 5*1024)
	in := writeTempInput(t, dir, "plain.bin", plaintext)
	enc := filepath.Join(dir, "plain.enc")
	out := filepath.Join(dir, "plain.dec")

	pw := NewPassword([]byte("trunc-pw"))
	defer pw.Release()
	if err := EncryptFile(in, enc, pw, EncryptOptions{ChunkSize: 1024}); err != nil {
		t.Fatal(err)
	}

	full, err := os.ReadFile(enc)
	if err != nil {
		t.Fatal(err)
	}
	truncated := filepath.Join(dir, "truncated.enc")
	if err := os.WriteFile(truncated, full[:len(full)-10], 0o600); err != nil {
		t.Fatal(err)
	}

	err = DecryptFile(truncated, out, pw, DecryptOptions{})
	if err == nil {
		t.Fatal("expected an error decrypting a truncated container")
	}
	if _, statErr := os.Stat(out); statErr == nil {
		t.Fatal("no output file should be materialised for a truncated container")
	}
}

func TestAtomicOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	in := writeTempInput(t, dir, "plain.txt", []byte("data"))
	enc := filepath.Join(dir, "plain.enc")

	pw := NewPassword([]byte("pw"))
	defer pw.Release()
	if err := EncryptFile(in, enc, pw, EncryptOptions{}); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "plain.dec")
	wrong := NewPassword([]byte("nope"))
	defer wrong.Release()
	if err := DecryptFile(enc, out, wrong, DecryptOptions{}); err == nil {
		t.Fatal("expected decrypt to fail")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("output path must not exist after a failed decrypt")
	}
}

func TestOverwriteSemantics(t *testing.T) {
	dir := t.TempDir()
	in := writeTempInput(t, dir, "plain.txt", []byte("data"))
	out := filepath.Join(dir, "plain.dec")
	if err := os.WriteFile(out, []byte("existing output"), 0o600); err != nil {
		t.Fatal(err)
	}

	enc := filepath.Join(dir, "plain.enc")
	pw := NewPassword([]byte("pw"))
	defer pw.Release()
	if err := EncryptFile(in, enc, pw, EncryptOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := DecryptFile(enc, out, pw, DecryptOptions{AllowOverwrite: false}); err != nil {
		t.Fatal(err)
	}

	suffixed := filepath.Join(dir, "plain (1).dec")
	if _, err := os.Stat(suffixed); err != nil {
		t.Fatalf("expected collision-suffixed output at %q: %v", suffixed, err)
	}
	if data, err := os.ReadFile(out); err != nil || string(data) != "existing output" {
		t.Fatal("original output file should have been left untouched")
	}
}

func TestEncryptRejectsEmptyPassword(t *testing.T) {
	dir := t.TempDir()
	in := writeTempInput(t, dir, "plain.txt", []byte("data"))
	enc := filepath.Join(dir, "plain.enc")

	empty := NewPassword(nil)
	defer empty.Release()
	if err := EncryptFile(in, enc, empty, EncryptOptions{}); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestEncryptRejectsOversizeChunkSize(t *testing.T) {
	dir := t.TempDir()
	in := writeTempInput(t, dir, "plain.txt", []byte("data"))
	enc := filepath.Join(dir, "plain.enc")
	pw := NewPassword([]byte("pw"))
	defer pw.Release()

	err := EncryptFile(in, enc, pw, EncryptOptions{ChunkSize: MaxChunkSize + 1})
	if !IsFormatError(err) {
		t.Fatalf("expected FormatError for oversize chunk_size, got %v", err)
	}
}

// Package filecrypt implements a password-authenticated streaming
// file-encryption engine: a self-describing binary container format
// (versions 4-7) plus the chunked AEAD pipeline that produces and consumes
// it, together with a batch-archive mode that bundles many files into one
// ZSTD-compressed TAR before encryption.
//
// # Overview
//
// Encryption derives a 32-byte key from a password (optionally mixed with a
// key-file hash) using Argon2id, then processes the plaintext in
// fixed-size chunks: each chunk is optionally ZSTD-compressed and sealed
// with AES-256-GCM, using the container's header bytes as associated data.
// A tampered header therefore breaks every chunk's authentication tag; the
// header carries no checksum or MAC of its own.
//
// # Basic usage
//
//	pw := filecrypt.NewPassword([]byte("correct horse battery staple"))
//	defer pw.Release()
//
//	err := filecrypt.EncryptFile("report.pdf", "report.pdf.enc", pw, filecrypt.EncryptOptions{
//	    Compress: true,
//	})
//
//	err = filecrypt.DecryptFile("report.pdf.enc", "report.pdf", pw, filecrypt.DecryptOptions{})
//
// # Container format
//
// Every container begins with a common header prefix (version, KDF
// parameters, salt, base nonce, chunk size, chunk count), followed by
// version-conditional fields (compression metadata for V5/V7, a flags byte
// for V6/V7), followed by a sequence of length-prefixed AEAD frames, one per
// chunk. See the package's header.go for the exact byte layout.
//
// # What this package does not do
//
// No public-key cryptography, no networked key exchange, no multi-user
// access, no rekeying of an existing container, no random access into
// ciphertext, no append-after-close, no in-place editing. File size, access
// time, and archive membership are not hidden.
package filecrypt

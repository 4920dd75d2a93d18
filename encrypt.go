package filecrypt

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// EncryptOptions configures a single streaming-encrypt operation.
type EncryptOptions struct {
	// ChunkSize is the plaintext chunk size. 0 normalises to DefaultChunkSize;
	// values above MaxChunkSize are rejected.
	ChunkSize int
	// Compress enables per-chunk ZSTD compression (selects V5/V7).
	Compress bool
	// KeyFilePath, if non-empty, mixes a key-file hash into the KDF input
	// (selects V6/V7).
	KeyFilePath string
	// AllowOverwrite controls whether an existing output path is replaced or
	// routed through the collision-suffix resolver.
	AllowOverwrite bool
	// Kdf overrides the default Argon2id parameters. Zero value uses
	// DefaultKdfParameters.
	Kdf *KdfParameters
	// Progress receives chunk-boundary callbacks; nil is treated as a no-op.
	Progress ProgressReporter
}

func (o *EncryptOptions) normalise() {
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Progress == nil {
		o.Progress = noopProgress
	}
	if o.Kdf == nil {
		d := DefaultKdfParameters()
		o.Kdf = &d
	}
}

// EncryptFile encrypts the contents of inputPath to outputPath per the
// streaming encryptor contract of §4.6: the output either decrypts back to
// exactly the input bytes, or no file is left at outputPath at all.
func EncryptFile(inputPath, outputPath string, password *Password, opts EncryptOptions) error {
	opts.normalise()

	if password.IsEmpty() {
		return ErrEmptyPassword
	}
	if opts.ChunkSize > MaxChunkSize {
		return &FormatError{Reason: fmt.Sprintf("chunk_size %d exceeds maximum %d", opts.ChunkSize, MaxChunkSize)}
	}

	resolvedInput, err := ValidateInputPath(inputPath)
	if err != nil {
		return err
	}

	in, err := os.Open(resolvedInput)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	inputSize := info.Size()

	totalChunks := uint64(1)
	if inputSize > 0 {
		totalChunks = uint64((inputSize + int64(opts.ChunkSize) - 1) / int64(opts.ChunkSize))
	}
	if totalChunks > MaxTotalChunks {
		return &FormatError{Reason: fmt.Sprintf("input requires %d chunks, exceeding maximum %d", totalChunks, MaxTotalChunks)}
	}

	var keyFileHash *SecureBytes
	if opts.KeyFilePath != "" {
		keyFileHash, err = HashKeyFile(opts.KeyFilePath)
		if err != nil {
			return err
		}
		defer keyFileHash.Release()
	}

	version := VersionPlain
	switch {
	case opts.Compress && keyFileHash != nil:
		version = VersionCompressedKeyFile
	case opts.Compress:
		version = VersionCompressed
	case keyFileHash != nil:
		version = VersionKeyFile
	}

	salt, err := GenerateSalt(opts.Kdf.SaltLength)
	if err != nil {
		return err
	}
	baseNonce, err := GenerateBaseNonce(time.Now().UnixNano())
	if err != nil {
		return err
	}

	header := &ContainerHeader{
		Version:     version,
		Kdf:         *opts.Kdf,
		Salt:        salt,
		BaseNonce:   baseNonce,
		ChunkSize:   uint32(opts.ChunkSize),
		TotalChunks: totalChunks,
	}
	if version.HasCompression() {
		header.CompressionAlgorithm = CompressionZstd
		header.CompressionLevel = ZstdCompressionLevel
		header.OriginalSize = uint64(inputSize)
	}
	if version.HasFlags() && keyFileHash != nil {
		header.Flags |= flagKeyFileUsed
	}

	headerBytes, err := header.Encode()
	if err != nil {
		return err
	}

	material := password.Bytes()
	var combined *SecureBytes
	if keyFileHash != nil {
		combined = CombinePasswordAndKeyFile(password, keyFileHash)
		defer combined.Release()
		material = combined.Bytes()
	}
	key, err := DeriveKeyWithParams(material, salt, *opts.Kdf)
	if err != nil {
		return err
	}
	defer key.Release()

	engine, err := NewAESGCMEngine(key.Bytes())
	if err != nil {
		return err
	}

	factory := OSSecureFileFactory{}
	tmp, err := factory.CreateTempFileIn(filepath.Dir(outputPath))
	if err != nil {
		return err
	}
	succeeded := false
	defer func() {
		if !succeeded {
			tmp.Discard()
		}
	}()

	if _, err := tmp.File().Write(headerBytes); err != nil {
		return err
	}

	plainBuf := make([]byte, opts.ChunkSize)
	var bytesDone uint64
	totalBytes := uint64(inputSize)

	for chunkIndex := uint64(0); chunkIndex < totalChunks; chunkIndex++ {
		n, readErr := io.ReadFull(in, plainBuf)
		if readErr == io.ErrUnexpectedEOF || readErr == io.EOF {
			readErr = nil
		} else if readErr != nil {
			return readErr
		}
		plaintext := plainBuf[:n]

		var payload []byte
		if header.Compressed() {
			payload, err = zstdCompress(plaintext)
			if err != nil {
				return err
			}
		} else {
			payload = plaintext
		}

		nonce := DeriveChunkNonce(header.BaseNonce, chunkIndex)
		ciphertext := engine.Seal(nonce[:], payload, headerBytes)

		bound := maxCiphertextLen(opts.ChunkSize, header.CompressionAlgorithm)
		if len(ciphertext) > bound {
			return &FormatError{Reason: fmt.Sprintf("internal error: chunk %d ciphertext length %d exceeds bound %d", chunkIndex, len(ciphertext), bound)}
		}

		var lenPrefix [4]byte
		binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(ciphertext)))
		if _, err := tmp.File().Write(lenPrefix[:]); err != nil {
			return err
		}
		if _, err := tmp.File().Write(ciphertext); err != nil {
			return err
		}

		bytesDone += uint64(n)
		opts.Progress(bytesDone, totalBytes)
	}

	finalPath, err := ResolveOutputPath(outputPath, opts.AllowOverwrite)
	if err != nil {
		return err
	}
	if err := tmp.Persist(finalPath, opts.AllowOverwrite); err != nil {
		return err
	}
	succeeded = true
	return nil
}

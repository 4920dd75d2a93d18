package filecrypt

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DecryptOptions configures a single streaming-decrypt operation.
type DecryptOptions struct {
	// KeyFilePath supplies the key-file if the container requires one.
	KeyFilePath string
	// AllowOverwrite controls whether an existing output path is replaced or
	// routed through the collision-suffix resolver.
	AllowOverwrite bool
	// Progress receives chunk-boundary callbacks; nil is treated as a no-op.
	Progress ProgressReporter
}

func (o *DecryptOptions) normalise() {
	if o.Progress == nil {
		o.Progress = noopProgress
	}
}

// DecryptFile decrypts inputPath to outputPath per the streaming decryptor
// contract of §4.7: state machine HeaderParsed -> KeyDerived ->
// (ChunkDecrypted)* -> Finalised, with no backtracking and no partial output
// on any failure.
func DecryptFile(inputPath, outputPath string, password *Password, opts DecryptOptions) error {
	opts.normalise()

	resolvedInput, err := ValidateInputPath(inputPath)
	if err != nil {
		return err
	}

	in, err := os.Open(resolvedInput)
	if err != nil {
		return err
	}
	defer in.Close()

	header, headerBytes, err := DecodeHeader(in)
	if err != nil {
		return err
	}

	if header.KeyFileUsed() && opts.KeyFilePath == "" {
		return &KeyFileRequiredError{}
	}

	var keyFileHash *SecureBytes
	if opts.KeyFilePath != "" {
		keyFileHash, err = HashKeyFile(opts.KeyFilePath)
		if err != nil {
			return err
		}
		defer keyFileHash.Release()
	}

	material := password.Bytes()
	var combined *SecureBytes
	if keyFileHash != nil {
		combined = CombinePasswordAndKeyFile(password, keyFileHash)
		defer combined.Release()
		material = combined.Bytes()
	}
	key, err := DeriveKeyWithParams(material, header.Salt, header.Kdf)
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

	bound := maxCiphertextLen(int(header.ChunkSize), header.CompressionAlgorithm)
	var plaintextWritten uint64
	var bytesDone uint64

	// ciphertext size is unknown up front when compressed; use file size as
	// the progress denominator, matching "ciphertext bytes during decryption".
	inInfo, err := in.Stat()
	if err != nil {
		return err
	}
	totalBytes := uint64(inInfo.Size())

	for chunkIndex := uint64(0); chunkIndex < header.TotalChunks; chunkIndex++ {
		var lenPrefix [4]byte
		if _, err := io.ReadFull(in, lenPrefix[:]); err != nil {
			return err
		}
		frameLen := binary.LittleEndian.Uint32(lenPrefix[:])
		if int(frameLen) > bound {
			return &FormatError{Reason: fmt.Sprintf("chunk %d declared length %d exceeds bound %d", chunkIndex, frameLen, bound)}
		}

		ciphertext := make([]byte, frameLen)
		if _, err := io.ReadFull(in, ciphertext); err != nil {
			return err
		}

		nonce := DeriveChunkNonce(header.BaseNonce, chunkIndex)
		payload, err := engine.Open(nonce[:], ciphertext, headerBytes)
		if err != nil {
			return &InvalidPasswordError{ChunkIndex: chunkIndex, Err: err}
		}

		var expectedPlaintextLen uint64
		if header.Compressed() {
			remaining := header.OriginalSize - plaintextWritten
			expectedPlaintextLen = uint64(header.ChunkSize)
			if remaining < expectedPlaintextLen {
				expectedPlaintextLen = remaining
			}
		} else {
			expectedPlaintextLen = uint64(header.ChunkSize)
		}

		var plaintext []byte
		if header.Compressed() {
			plaintext, err = zstdDecompress(payload, int(expectedPlaintextLen))
			if err != nil {
				return err
			}
		} else {
			if uint64(len(payload)) > expectedPlaintextLen {
				return &FormatError{Reason: fmt.Sprintf("chunk %d decrypted length %d exceeds expected %d", chunkIndex, len(payload), expectedPlaintextLen)}
			}
			plaintext = payload
		}

		if _, err := tmp.File().Write(plaintext); err != nil {
			return err
		}
		plaintextWritten += uint64(len(plaintext))

		bytesDone += uint64(4 + len(ciphertext))
		opts.Progress(bytesDone, totalBytes)
	}

	if header.Compressed() && plaintextWritten != header.OriginalSize {
		return &FormatError{Reason: fmt.Sprintf("decompressed total %d does not match declared original_size %d", plaintextWritten, header.OriginalSize)}
	}

	// Reject trailing bytes after the declared chunk sequence: a well-formed
	// container ends exactly at the last frame.
	var extra [1]byte
	if n, err := in.Read(extra[:]); n > 0 || (err != nil && err != io.EOF) {
		return &FormatError{Reason: "trailing data after final chunk"}
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

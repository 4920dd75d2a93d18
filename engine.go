package filecrypt

import "fmt"

// Engine is a thin façade binding a password to the package-level streaming
// operations, for callers that perform several encrypt/decrypt calls
// against the same credential without re-threading the Password value.
// Archiving carries no credential, so CreateArchive/ExtractArchive are not
// wrapped here; call them directly. Engine holds no other state and owns no
// background goroutines; per §5, every call is a synchronous,
// single-threaded pipeline over one file.
type Engine struct {
	password *Password
}

// NewEngine validates password and wraps it for reuse across calls. Callers
// must call Close when done to zeroize the underlying buffer.
func NewEngine(password *Password) (*Engine, error) {
	if password.IsEmpty() {
		return nil, fmt.Errorf("filecrypt: %w", ErrEmptyPassword)
	}
	return &Engine{password: password}, nil
}

// Close zeroizes the engine's password. Safe to call multiple times.
func (e *Engine) Close() {
	e.password.Release()
}

// Encrypt runs EncryptFile using the engine's password.
func (e *Engine) Encrypt(inputPath, outputPath string, opts EncryptOptions) error {
	return EncryptFile(inputPath, outputPath, e.password, opts)
}

// Decrypt runs DecryptFile using the engine's password.
func (e *Engine) Decrypt(inputPath, outputPath string, opts DecryptOptions) error {
	return DecryptFile(inputPath, outputPath, e.password, opts)
}

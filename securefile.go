package filecrypt

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ProgressReporter is called at chunk boundaries during encryption and
// decryption. Resolution is plaintext bytes during encryption, ciphertext
// bytes during decryption (§6). It must be safe to call repeatedly from the
// same goroutine but is never called re-entrantly on a single operation.
type ProgressReporter func(bytesDone, bytesTotal uint64)

// noopProgress is used when a caller supplies a nil reporter.
func noopProgress(uint64, uint64) {}

// SecureFileFactory creates owner-only-readable temporary files used as the
// write target for every streaming or archive operation, so that no partial
// output is ever visible at the final path. This is the one collaborator
// named in §6 that the core cannot do without; it is implemented in-package
// (rather than left fully external) because no IPC/UI layer exists here to
// supply an alternative.
type SecureFileFactory interface {
	// CreateTempFileIn returns a freshly-created, owner-only-readable file
	// inside dir.
	CreateTempFileIn(dir string) (*OSTempFile, error)
}

// OSTempFile is the temp file returned by OSSecureFileFactory. It lives in the
// destination directory itself so the final rename is same-filesystem (and
// therefore atomic on POSIX and on Windows via MoveFileEx semantics).
type OSTempFile struct {
	f        *os.File
	path     string
	finished bool
}

// OSSecureFileFactory implements SecureFileFactory over the local filesystem.
type OSSecureFileFactory struct{}

// CreateTempFileIn creates a uniquely-named, owner-only (0600) file in dir.
func (OSSecureFileFactory) CreateTempFileIn(dir string) (*OSTempFile, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, ".filecrypt-"+uuid.NewString()+".tmp")
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	return &OSTempFile{f: f, path: name}, nil
}

// File returns the underlying *os.File for writing.
func (t *OSTempFile) File() *os.File { return t.f }

// Write implements io.Writer.
func (t *OSTempFile) Write(p []byte) (int, error) { return t.f.Write(p) }

// Persist flushes, closes, and atomically renames the temp file to
// finalPath. If allowOverwrite is false and finalPath already exists, the
// caller is expected to have already resolved a non-colliding finalPath via
// ResolveOutputPath; Persist itself only ever removes finalPath when
// allowOverwrite is true, and never promotes a partial file.
func (t *OSTempFile) Persist(finalPath string, allowOverwrite bool) error {
	if t.finished {
		return fmt.Errorf("temp file already finalized")
	}
	if err := t.f.Sync(); err != nil {
		t.discard()
		return err
	}
	if err := t.f.Close(); err != nil {
		t.discard()
		return err
	}
	if allowOverwrite {
		if _, err := os.Stat(finalPath); err == nil {
			if err := os.Remove(finalPath); err != nil {
				t.discard()
				return err
			}
		}
	}
	if err := os.Rename(t.path, finalPath); err != nil {
		t.discard()
		return err
	}
	t.finished = true
	return nil
}

// Discard removes the temp file without promoting it. Safe to call after a
// successful Persist (it becomes a no-op).
func (t *OSTempFile) Discard() {
	if t.finished {
		return
	}
	t.discard()
}

func (t *OSTempFile) discard() {
	t.f.Close()
	os.Remove(t.path)
	t.finished = true
}

package filecrypt

import (
	"errors"
	"fmt"
)

// Each error kind named in the external interface gets its own struct type,
// following the one-struct-per-kind shape used throughout this codebase.
// Wrong-credential and structural failures are deliberately distinct types:
// several round-trip tests rely on telling them apart.

// InvalidPasswordError means AEAD tag verification failed for some chunk.
// It covers both a wrong password and a wrong or missing key-file component,
// since the two are combined into one derivation input before the tag check.
type InvalidPasswordError struct {
	ChunkIndex uint64
	Err        error
}

func (e *InvalidPasswordError) Error() string {
	return fmt.Sprintf("invalid password or key-file: authentication failed at chunk %d", e.ChunkIndex)
}

func (e *InvalidPasswordError) Unwrap() error { return e.Err }

// FormatError means the container is structurally invalid: an out-of-range
// field, unknown version, inconsistent cross-field value, oversize frame, or
// a size mismatch discovered without any AEAD failure.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Reason == "" {
		return "malformed container"
	}
	return "malformed container: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// InvalidPathError covers input paths that are symlinks or non-regular
// files, and output-collision searches that exhausted their candidates.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// PathTraversalError covers archive entries or extraction targets that
// escape the intended root.
type PathTraversalError struct {
	Entry  string
	Reason string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path traversal in entry %q: %s", e.Entry, e.Reason)
}

// ArchiveError covers archive-level structural problems: a symlink entry, or
// a declared extracted size over the decompression-bomb cap.
type ArchiveError struct {
	Reason string
	Err    error
}

func (e *ArchiveError) Error() string {
	return "archive error: " + e.Reason
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// KeyFileRequiredError means the container's flags byte marks key-file use
// but the caller supplied none.
type KeyFileRequiredError struct{}

func (e *KeyFileRequiredError) Error() string {
	return "this container was encrypted with a key-file; one must be supplied to decrypt"
}

// KeyFileError covers a key-file that is empty, oversize, or not a regular file.
type KeyFileError struct {
	Path   string
	Reason string
}

func (e *KeyFileError) Error() string {
	return fmt.Sprintf("key-file %q: %s", e.Path, e.Reason)
}

// TooManyFilesError means a batch operation's input set exceeded MaxBatchFiles.
type TooManyFilesError struct {
	Count int
	Limit int
}

func (e *TooManyFilesError) Error() string {
	return fmt.Sprintf("too many files: %d exceeds the limit of %d", e.Count, e.Limit)
}

// Sentinel errors used in a handful of places where no extra context is
// carried beyond a fixed message.
var (
	// ErrEmptyPassword is returned when an empty password buffer reaches the
	// encryptor; the KDF itself places no policy on password content.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrEmptyBatch is returned when an archive is requested with no inputs.
	ErrEmptyBatch = errors.New("archive operation requires at least one input file")
)

// Helpers mirroring errors.As so callers can branch on kind without
// importing the concrete types' package-qualified names repeatedly.

func IsInvalidPassword(err error) bool {
	var e *InvalidPasswordError
	return errors.As(err, &e)
}

func IsFormatError(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

func IsInvalidPath(err error) bool {
	var e *InvalidPathError
	return errors.As(err, &e)
}

func IsPathTraversal(err error) bool {
	var e *PathTraversalError
	return errors.As(err, &e)
}

func IsArchiveError(err error) bool {
	var e *ArchiveError
	return errors.As(err, &e)
}

func IsKeyFileRequired(err error) bool {
	var e *KeyFileRequiredError
	return errors.As(err, &e)
}

func IsKeyFileError(err error) bool {
	var e *KeyFileError
	return errors.As(err, &e)
}

func IsTooManyFiles(err error) bool {
	var e *TooManyFilesError
	return errors.As(err, &e)
}

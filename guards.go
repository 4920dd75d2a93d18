package filecrypt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateInputPath requires path to exist, resolve to a regular file, and
// contain no symlink at any path component. It returns the canonical
// absolute path. Walking every component (rather than a single
// os.Lstat(path)) is required because a symlink earlier in the path can
// still redirect the final component to an unexpected location.
func ValidateInputPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	if err := rejectSymlinkComponents(abs); err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", &InvalidPathError{Path: path, Reason: "not a regular file"}
	}
	return abs, nil
}

// rejectSymlinkComponents walks every partial prefix of abs and rejects if
// any component is a symlink.
func rejectSymlinkComponents(abs string) error {
	vol := filepath.VolumeName(abs)
	rest := strings.TrimPrefix(abs[len(vol):], string(filepath.Separator))
	parts := strings.Split(rest, string(filepath.Separator))

	current := vol + string(filepath.Separator)
	for _, part := range parts {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)
		fi, err := os.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			return &InvalidPathError{Path: abs, Reason: fmt.Sprintf("path component %q is a symlink", current)}
		}
	}
	return nil
}

// ResolveOutputPath implements the output-collision guard of §4.9. If
// allowOverwrite is true, or the target does not yet exist, path is
// returned unchanged. Otherwise it builds candidates "<stem> (n).<ext>" for
// n in [1, 1000] and returns the first that does not exist.
func ResolveOutputPath(path string, allowOverwrite bool) (string, error) {
	if allowOverwrite {
		return path, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for n := 1; n <= 1000; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", &InvalidPathError{Path: path, Reason: "output-collision search exhausted 1000 candidates"}
}

// CheckBatchCap rejects input sets larger than MaxBatchFiles.
func CheckBatchCap(count int) error {
	if count > MaxBatchFiles {
		return &TooManyFilesError{Count: count, Limit: MaxBatchFiles}
	}
	return nil
}

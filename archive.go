package filecrypt

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ArchiveOptions configures CreateArchive.
type ArchiveOptions struct {
	AllowOverwrite bool
	Progress       ProgressReporter
}

func (o *ArchiveOptions) normalise() {
	if o.Progress == nil {
		o.Progress = noopProgress
	}
}

// CreateArchive bundles inputPaths into a single TAR stream wrapped in a
// ZSTD frame at outputPath, per §4.8. Only regular-file contents are ever
// written: no directories, symlinks, or extended metadata.
func CreateArchive(inputPaths []string, outputPath string, opts ArchiveOptions) error {
	opts.normalise()

	if len(inputPaths) == 0 {
		return ErrEmptyBatch
	}
	if err := CheckBatchCap(len(inputPaths)); err != nil {
		return err
	}

	type resolved struct {
		abs  string
		size int64
	}
	entries := make([]resolved, 0, len(inputPaths))
	for _, p := range inputPaths {
		abs, err := ValidateInputPath(p)
		if err != nil {
			return err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return err
		}
		entries = append(entries, resolved{abs: abs, size: info.Size()})
	}

	dirs := make([]string, len(entries))
	for i, e := range entries {
		dirs[i] = filepath.Dir(e.abs)
	}
	prefix := commonParentPrefix(dirs)

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

	zw, err := zstd.NewWriter(tmp.File(), zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)

	var totalSize int64
	for _, e := range entries {
		totalSize += e.size
	}

	var bytesDone uint64
	for _, e := range entries {
		name := archiveEntryName(e.abs, prefix)

		f, err := os.Open(e.abs)
		if err != nil {
			return err
		}

		if err := tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Size:     e.size,
			Mode:     0o600,
			ModTime:  time.Now(),
		}); err != nil {
			f.Close()
			return err
		}
		n, err := io.Copy(tw, f)
		f.Close()
		if err != nil {
			return err
		}

		bytesDone += uint64(n)
		opts.Progress(bytesDone, uint64(totalSize))
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
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

// commonParentPrefix returns the longest common sequence of leading path
// components shared by all of dirs. A single input's prefix is its own
// parent. No common prefix (e.g. cross-drive on Windows) yields "".
func commonParentPrefix(dirs []string) string {
	if len(dirs) == 1 {
		return dirs[0]
	}

	split := make([][]string, len(dirs))
	minLen := -1
	for i, d := range dirs {
		parts := strings.Split(filepath.Clean(d), string(filepath.Separator))
		split[i] = parts
		if minLen == -1 || len(parts) < minLen {
			minLen = len(parts)
		}
	}

	var common []string
	for i := 0; i < minLen; i++ {
		part := split[0][i]
		for _, parts := range split[1:] {
			if parts[i] != part {
				return strings.Join(common, string(filepath.Separator))
			}
		}
		common = append(common, part)
	}
	return strings.Join(common, string(filepath.Separator))
}

// archiveEntryName computes the relative entry name for abs under prefix.
// If prefix is empty, or stripping it would still leave an absolute path
// (the cross-drive edge case from §9), the entry falls back to the filename
// alone.
func archiveEntryName(abs, prefix string) string {
	if prefix == "" {
		return filepath.Base(abs)
	}
	rel, err := filepath.Rel(prefix, abs)
	if err != nil || filepath.IsAbs(rel) {
		return filepath.Base(abs)
	}
	return filepath.ToSlash(rel)
}

// ExtractArchive extracts a TAR+ZSTD archive at archivePath into outputDir,
// in two passes per §4.8: validate (bomb-cap enforcement, traversal
// rejection) then extract. Returns the list of materialised paths.
func ExtractArchive(archivePath, outputDir string, allowOverwrite bool) ([]string, error) {
	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return nil, err
	}
	bombCap := archiveInfo.Size() * ArchiveBombRatio
	if bombCap > ArchiveBombAbsoluteCap {
		bombCap = ArchiveBombAbsoluteCap
	}

	if err := validateArchive(archivePath, bombCap); err != nil {
		return nil, err
	}

	return extractArchive(archivePath, outputDir, allowOverwrite)
}

// validateArchive enumerates entries without writing anything: pass 1.
func validateArchive(archivePath string, bombCap int64) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	var totalSize int64

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if filepath.IsAbs(hdr.Name) || hasParentComponent(hdr.Name) {
			return &PathTraversalError{Entry: hdr.Name, Reason: "absolute path or parent-directory component"}
		}
		if hdr.Typeflag == tar.TypeSymlink {
			return &ArchiveError{Reason: fmt.Sprintf("entry %q is a symlink", hdr.Name)}
		}
		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeRegA {
			continue
		}

		totalSize += hdr.Size
		if totalSize > bombCap {
			return &ArchiveError{Reason: fmt.Sprintf("declared extracted size %d exceeds bomb cap %d", totalSize, bombCap)}
		}
	}
	return nil
}

// extractArchive performs pass 2: re-reads the archive and materialises
// every regular entry.
func extractArchive(archivePath, outputDir string, allowOverwrite bool) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, err
	}

	var written []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, err
		}
		if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeRegA {
			continue
		}

		safePath, err := safeExtractPath(absOutputDir, hdr.Name)
		if err != nil {
			return written, err
		}

		target := safePath
		if _, statErr := os.Stat(safePath); statErr == nil && !allowOverwrite {
			target, err = ResolveOutputPath(safePath, false)
			if err != nil {
				return written, err
			}
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return written, err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return written, err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return written, err
		}
		out.Close()
		written = append(written, target)
	}
	return written, nil
}

// safeExtractPath hand-normalises entryName (no canonicalize: the target
// does not exist yet) and requires the result to remain inside
// absOutputDir.
func safeExtractPath(absOutputDir, entryName string) (string, error) {
	joined := filepath.Join(absOutputDir, entryName)
	cleaned := filepath.Clean(joined)

	withSep := absOutputDir
	if !strings.HasSuffix(withSep, string(filepath.Separator)) {
		withSep += string(filepath.Separator)
	}
	if cleaned != absOutputDir && !strings.HasPrefix(cleaned, withSep) {
		return "", &PathTraversalError{Entry: entryName, Reason: "normalised path escapes output directory"}
	}
	return cleaned, nil
}

func hasParentComponent(name string) bool {
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

var archiveNameDisallowed = regexp.MustCompile(`[/\\<>:"|?*]`)

// SanitizeArchiveName strips characters unsafe for a filesystem entry name
// from a user-supplied archive name, trims whitespace, strips leading dots
// (defeating hidden files and residual ".." prefixes), and caps length to
// 200 characters. An empty result falls back to a timestamped name.
func SanitizeArchiveName(name string, now time.Time) string {
	cleaned := archiveNameDisallowed.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimLeft(cleaned, ".")
	if runes := []rune(cleaned); len(runes) > 200 {
		cleaned = string(runes[:200])
	}
	if cleaned == "" {
		return fmt.Sprintf("archive_%s.tar.zst", now.Format("20060102_150405"))
	}
	return cleaned
}

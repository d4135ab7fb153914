package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path validation errors. Callers match with errors.Is.
var (
	// ErrOutsideBase means the path resolves outside the allowed base directory.
	ErrOutsideBase = errors.New("path is outside the base directory")
	// ErrNotFound means no regular file exists at the resolved path.
	ErrNotFound = errors.New("file not found")
)

// ResolvePath validates a user-supplied file path against an allowed base
// directory and returns its cleaned absolute form.
//
// The raw path is cleaned (".." and "." segments resolved) before any
// comparison — raw strings are never compared, which blocks traversal via
// relative segments. A relative path is joined against baseDir first. The
// resolved path must be the base directory itself or a descendant of it,
// must exist as a regular file, and must carry a supported extension.
//
// Apart from a single existence probe this function has no side effects.
func ResolvePath(raw, baseDir string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("document: path is required: %w", ErrNotFound)
	}

	base, err := filepath.Abs(filepath.Clean(baseDir))
	if err != nil {
		return "", fmt.Errorf("document: resolve base directory %q: %w", baseDir, err)
	}

	target := filepath.Clean(raw)
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target, err = filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("document: resolve path %q: %w", raw, err)
	}

	// Separator-suffixed prefix check so /data-evil does not pass for /data.
	if !strings.HasPrefix(target+string(filepath.Separator), base+string(filepath.Separator)) {
		return "", fmt.Errorf("document: %q resolves outside %q: %w", raw, base, ErrOutsideBase)
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("document: %q: %w", target, ErrNotFound)
		}
		return "", fmt.Errorf("document: stat %q: %w", target, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("document: %q is a directory: %w", target, ErrNotFound)
	}

	if _, err := Detect(target); err != nil {
		return "", err
	}

	return target, nil
}

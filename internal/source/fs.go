// Package source provides workspace-rooted access to the specification
// documents and the test-suite manifest consumed by an analysis run.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kabir/a2a-tck/internal/checksum"
)

// DocumentInfo is the identifying metadata of one input file.
type DocumentInfo struct {
	Path     string    `json:"path"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mod_time"`
}

// FS reads analysis inputs from the local file system, confined to a
// workspace root.
type FS struct {
	root string // absolute path to the workspace directory
}

// NewFS creates an FS rooted at the given directory, which must exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("source: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("source: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute workspace root.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the workspace root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("source: empty path")
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("source: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("source: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("source: path escapes workspace root: %s", rel)
	}
	return abs, nil
}

// Abs returns the absolute on-disk path for a workspace-relative path.
// Used by the watcher to register the containing directories.
func (f *FS) Abs(rel string) (string, error) {
	return f.safePath(rel)
}

// Read returns the raw bytes of a workspace file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	return data, nil
}

// Stat returns checksummed metadata for a workspace file.
func (f *FS) Stat(path string) (DocumentInfo, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return DocumentInfo{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("source: stat %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("source: read %s: %w", path, err)
	}
	return DocumentInfo{
		Path:     path,
		Checksum: checksum.Sum(data),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}, nil
}

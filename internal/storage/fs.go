package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// StoreFile is the name of the JSON store inside the library root.
	StoreFile = "store.json"
	// ImagesDir is the name of the images directory inside the library root.
	ImagesDir = "images"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to library directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute library root path.
func (f *FS) Root() string { return f.root }

// StorePath returns the absolute path of the store file.
func (f *FS) StorePath() string { return filepath.Join(f.root, StoreFile) }

// imagePath validates that name is a plain filename (no path separators,
// no traversal) and returns its absolute path under the images directory.
func (f *FS) imagePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: image filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid image filename: %s", name)
	}
	dir := filepath.Join(f.root, ImagesDir)
	abs := filepath.Join(dir, cleaned)
	if !strings.HasPrefix(abs, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes images directory: %s", name)
	}
	return abs, nil
}

// ReadStore returns the raw bytes of the store file.
func (f *FS) ReadStore() ([]byte, error) {
	data, err := os.ReadFile(f.StorePath())
	if err != nil {
		return nil, fmt.Errorf("storage: read store: %w", err)
	}
	return data, nil
}

// WriteStore atomically writes the store file: tmp file → fsync → rename.
func (f *FS) WriteStore(content []byte) error {
	return f.atomicWrite(f.StorePath(), content)
}

// ListImages returns the filenames in the images directory, sorted.
// A missing images directory is treated as empty.
func (f *FS) ListImages() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, ImagesDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: list images: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// ReadImage returns the raw bytes of an image file.
func (f *FS) ReadImage(name string) ([]byte, error) {
	abs, err := f.imagePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read image %s: %w", name, err)
	}
	return data, nil
}

// WriteImage writes an image file, creating the images directory if needed.
func (f *FS) WriteImage(name string, content []byte) error {
	abs, err := f.imagePath(name)
	if err != nil {
		return err
	}
	return f.atomicWrite(abs, content)
}

// ImageExists reports whether an image with the given name is present.
func (f *FS) ImageExists(name string) bool {
	abs, err := f.imagePath(name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(abs)
	return statErr == nil
}

func (f *FS) atomicWrite(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gebo-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

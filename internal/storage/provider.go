// Package storage defines the library file-system abstraction.
package storage

// Provider is the interface for library file operations.
// A library is a directory holding the store file (store.json) and a flat
// images directory referenced from comp notes.
type Provider interface {
	// ReadStore returns the raw bytes of the store file.
	ReadStore() ([]byte, error)
	// WriteStore atomically overwrites the store file.
	WriteStore(content []byte) error
	// ListImages returns the filenames in the images directory, sorted.
	ListImages() ([]string, error)
	// ReadImage returns the raw bytes of an image file.
	ReadImage(name string) ([]byte, error)
	// WriteImage writes an image file, creating the directory if needed.
	WriteImage(name string, content []byte) error
	// ImageExists reports whether an image with the given name is present.
	ImageExists(name string) bool
}

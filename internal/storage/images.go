package storage

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GeneratedImageName returns a fresh filename for a pasted image that
// arrived without one. ext should include the leading dot.
func GeneratedImageName(ext string) string {
	if ext == "" {
		ext = ".png"
	}
	return "pasted-" + uuid.NewString() + ext
}

// UniqueImageName returns name unchanged when it is free, otherwise a
// variant with a random suffix that does not collide with an existing image.
func UniqueImageName(p Provider, name string) string {
	if !p.ImageExists(name) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "-" + uuid.NewString()[:8] + ext
}

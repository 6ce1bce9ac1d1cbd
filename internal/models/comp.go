// Package models defines the domain types for Gebo.
package models

import (
	"strings"
	"time"
)

// Comp is one composition entry in the library.
// Notes is an opaque HTML fragment; image references inside it use
// relative paths of the form ../data/images/<filename>.
type Comp struct {
	Notes      string    `json:"notes"`
	Items      []string  `json:"items"`
	Tags       []string  `json:"tags"`
	LastEdited time.Time `json:"lastEdited"`
	Color      string    `json:"color,omitempty"`
}

// Store maps a normalized (lowercase) comp name to its record.
type Store map[string]Comp

// NormalizeName lowercases and trims a comp name so it can act as a store key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayName derives the display form of a stored name by capitalizing
// each word. Words are separated by spaces or hyphens; separators are kept.
func DisplayName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	upperNext := true
	for _, r := range name {
		switch {
		case r == ' ' || r == '-':
			upperNext = true
			b.WriteRune(r)
		case upperNext:
			b.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

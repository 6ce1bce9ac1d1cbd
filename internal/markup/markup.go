// Package markup provides regexp-based helpers over the HTML fragments
// stored in comp notes. The helpers are deliberately not HTML-aware: they
// operate on the text, matching the behavior the store format grew up with.
package markup

import (
	"regexp"
	"strings"
)

var (
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	imgSrcRe = regexp.MustCompile(`<img[^>]+src="([^"]*)"`)
)

// StripTags removes markup tags from an HTML fragment, leaving the text
// content. Used to build the searchable form of comp notes.
func StripTags(html string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(html, " "))
}

// ImageRefs returns the filenames referenced by <img> src attributes that
// point into the relative images directory.
func ImageRefs(html string) []string {
	matches := imgSrcRe.FindAllStringSubmatch(html, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		src := m[1]
		name := src
		if i := strings.LastIndex(src, "/"); i >= 0 {
			name = src[i+1:]
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// RewriteImageRef substitutes references to a renamed image file inside
// notes. It replaces the three textual forms the store has historically
// used: "../data/images/<old>", "data/images/<old>", and the bare filename.
// This is a plain string substitution, so it can both under- and over-match;
// the bare-filename pass runs last so the path forms are rewritten first.
func RewriteImageRef(notes, oldName, newName string) string {
	if oldName == newName || oldName == "" {
		return notes
	}
	notes = strings.ReplaceAll(notes, "../data/images/"+oldName, "../data/images/"+newName)
	notes = strings.ReplaceAll(notes, "data/images/"+oldName, "data/images/"+newName)
	notes = strings.ReplaceAll(notes, oldName, newName)
	return notes
}

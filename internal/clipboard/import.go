package clipboard

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/markup"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/storage"
)

// ImportResult reports what an import actually wrote.
type ImportResult struct {
	// Comps maps incoming comp name to the name inserted into the store.
	Comps map[string]string
	// Images maps incoming image filename to the filename written on disk.
	// Only renamed images appear here.
	Images map[string]string
}

// Import merges payload text into the library: images land on disk first
// (renamed on collision), image references inside imported notes are
// rewritten to the new filenames, records are normalized, and the merged
// store is persisted in one write. Existing comps are never overwritten.
func Import(repo *comps.Repository, fs storage.Provider, text string) (*ImportResult, error) {
	p, err := Decode(text)
	if err != nil {
		return nil, err
	}

	renames, err := writeImages(fs, p.Images)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	incoming := make(models.Store, len(p.Comps))
	for name, raw := range p.Comps {
		rec := comps.NormalizeRaw(raw, now)
		for oldName, newName := range renames {
			rec.Notes = markup.RewriteImageRef(rec.Notes, oldName, newName)
		}
		incoming[name] = rec
	}

	inserted, err := repo.Merge(incoming)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Comps: inserted, Images: renames}, nil
}

// writeImages decodes and writes every embedded image, renaming on
// filename collision. Returns the old-name → new-name mapping for the
// renamed ones.
func writeImages(fs storage.Provider, images map[string]string) (map[string]string, error) {
	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	sort.Strings(names)

	renames := make(map[string]string)
	for _, name := range names {
		data, err := base64.StdEncoding.DecodeString(images[name])
		if err != nil {
			return nil, fmt.Errorf("%w: image %s: %v", apperr.ErrInvalidPayload, name, err)
		}
		target := name
		if fs.ImageExists(name) {
			target = importedImageName(fs, name)
			renames[name] = target
		}
		if err := fs.WriteImage(target, data); err != nil {
			return nil, err
		}
	}
	return renames, nil
}

// importedImageName derives a collision-free name of the form
// <base>-imported-<timestamp><ext>, bumping the timestamp until free.
func importedImageName(fs storage.Provider, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	ts := time.Now().UnixMilli()
	for {
		candidate := fmt.Sprintf("%s-imported-%d%s", base, ts, ext)
		if !fs.ImageExists(candidate) {
			return candidate
		}
		ts++
	}
}

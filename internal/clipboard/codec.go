// Package clipboard implements the export/import codec: a self-contained
// JSON payload holding a subset of the comp store plus every image in the
// library, suitable for moving between instances through the OS clipboard.
package clipboard

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/storage"
)

// Payload is the wire shape. Comps values stay raw so imports tolerate the
// same legacy record shapes the store file does; Images maps filename to
// base64-encoded bytes.
type Payload struct {
	Comps  map[string]json.RawMessage `json:"comps"`
	Images map[string]string          `json:"images"`
}

// Export builds the payload text for the whole store, or for a single comp
// when name is non-empty. Every file in the images directory is embedded
// regardless of whether the selected notes reference it; export reads disk
// but never writes it.
func Export(repo *comps.Repository, fs storage.Provider, name string) (string, error) {
	snapshot := repo.Snapshot()

	selected := snapshot
	if name != "" {
		key := models.NormalizeName(name)
		rec, ok := snapshot[key]
		if !ok {
			return "", apperr.ErrNotFound
		}
		selected = models.Store{key: rec}
	}

	rawComps := make(map[string]json.RawMessage, len(selected))
	for n, rec := range selected {
		data, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("clipboard: marshal comp %s: %w", n, err)
		}
		rawComps[n] = data
	}

	names, err := fs.ListImages()
	if err != nil {
		return "", fmt.Errorf("clipboard: %w", err)
	}
	images := make(map[string]string, len(names))
	for _, img := range names {
		data, err := fs.ReadImage(img)
		if err != nil {
			return "", fmt.Errorf("clipboard: %w", err)
		}
		images[img] = base64.StdEncoding.EncodeToString(data)
	}

	out, err := json.Marshal(Payload{Comps: rawComps, Images: images})
	if err != nil {
		return "", fmt.Errorf("clipboard: marshal payload: %w", err)
	}
	return string(out), nil
}

// Decode parses payload text, rejecting anything that is not the expected
// shape.
func Decode(text string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidPayload, err)
	}
	if p.Comps == nil {
		return nil, fmt.Errorf("%w: missing comps", apperr.ErrInvalidPayload)
	}
	return &p, nil
}

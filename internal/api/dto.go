package api

import (
	"time"

	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/models"
)

// CreateCompRequest is the request body for creating a comp.
type CreateCompRequest struct {
	Name string `json:"name"`
}

// UpdateCompRequest is a partial mutation; absent fields are untouched.
type UpdateCompRequest struct {
	Notes *string   `json:"notes"`
	Items *[]string `json:"items"`
	Tags  *[]string `json:"tags"`
	Color *string   `json:"color"`
}

// only reports whether the update touches notes and nothing else, which is
// the path that goes through the debounced autosave.
func (r *UpdateCompRequest) notesOnly() bool {
	return r.Notes != nil && r.Items == nil && r.Tags == nil && r.Color == nil
}

// RenameCompRequest is the request body for renaming a comp.
type RenameCompRequest struct {
	NewName string `json:"new_name"`
}

// CompDetail is the full representation of a comp.
type CompDetail struct {
	Name       string    `json:"name"`
	Display    string    `json:"display"`
	Notes      string    `json:"notes"`
	Items      []string  `json:"items"`
	Tags       []string  `json:"tags"`
	Color      string    `json:"color,omitempty"`
	LastEdited time.Time `json:"lastEdited"`
}

// CompListItem is a lightweight item in a list response.
type CompListItem struct {
	Name       string    `json:"name"`
	Display    string    `json:"display"`
	Tags       []string  `json:"tags"`
	Color      string    `json:"color,omitempty"`
	LastEdited time.Time `json:"lastEdited"`
}

// CompListResponse wraps comp listings.
type CompListResponse struct {
	Comps    []CompListItem `json:"comps"`
	Total    int            `json:"total"`
	Revision string         `json:"revision,omitempty"`
}

// ImageSaveRequest is the request body for persisting a pasted image.
// Data is base64; Filename may be empty, in which case one is generated.
type ImageSaveRequest struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
}

// ImageSaveResponse mirrors the image-persist collaborator contract.
type ImageSaveResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ImportResponse reports the renames an import performed.
type ImportResponse struct {
	Comps  map[string]string `json:"comps"`
	Images map[string]string `json:"images"`
}

func compDetail(name string, c models.Comp) CompDetail {
	return CompDetail{
		Name:       name,
		Display:    models.DisplayName(name),
		Notes:      c.Notes,
		Items:      c.Items,
		Tags:       c.Tags,
		Color:      c.Color,
		LastEdited: c.LastEdited,
	}
}

func compListItems(in []comps.Named) []CompListItem {
	out := make([]CompListItem, len(in))
	for i, n := range in {
		out[i] = CompListItem{
			Name:       n.Name,
			Display:    models.DisplayName(n.Name),
			Tags:       n.Comp.Tags,
			Color:      n.Comp.Color,
			LastEdited: n.Comp.LastEdited,
		}
	}
	return out
}

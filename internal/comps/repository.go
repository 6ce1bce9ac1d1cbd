// Package comps implements the comp repository: the in-memory mirror of the
// JSON store file, the normalization rules, and every mutating operation.
// The store file is the single source of truth; each mutation rewrites it in
// full and rolls the in-memory state back when the write fails.
package comps

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/checksum"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/storage"
)

// Fields is a partial update: nil members are left untouched.
type Fields struct {
	Notes *string
	Items *[]string
	Tags  *[]string
	Color *string
}

// Named pairs a store key with its record for ordered results.
type Named struct {
	Name string      `json:"name"`
	Comp models.Comp `json:"comp"`
}

// Repository owns the in-memory store and mediates all access to the
// persistent file.
type Repository struct {
	mu      sync.Mutex
	fs      storage.Provider
	comps   models.Store
	now     func() time.Time
	coll    *collate.Collator // not safe for concurrent use; guarded by mu
	lastSum string            // checksum of the store bytes this process last read or wrote
}

// New creates a repository over the given storage provider.
// Call Load before using it.
func New(fs storage.Provider) *Repository {
	return &Repository{
		fs:    fs,
		comps: models.Store{},
		now:   time.Now,
		coll:  collate.New(language.Und),
	}
}

// Load reads the store file and normalizes every record. A missing or
// unparseable file resets the store to empty and writes it out, trading
// possibly-corrupt data for availability.
func (r *Repository) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// Reload re-reads the store file, replacing the in-memory state. Used after
// an external process modified the file.
func (r *Repository) Reload() error {
	return r.Load()
}

func (r *Repository) loadLocked() error {
	data, err := r.fs.ReadStore()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("comps: load: %w", err)
		}
		r.comps = models.Store{}
		return r.persistLocked()
	}

	r.lastSum = checksum.Sum(data)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Corrupt store file: reset to empty rather than refuse to start.
		r.comps = models.Store{}
		return r.persistLocked()
	}

	now := r.now()
	store := make(models.Store, len(raw))
	for name, rec := range raw {
		store[models.NormalizeName(name)] = normalizeRecord(rec, now)
	}
	r.comps = store
	return nil
}

// Save serializes the whole store as pretty-printed JSON and atomically
// overwrites the store file.
func (r *Repository) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked()
}

func (r *Repository) persistLocked() error {
	data, err := json.MarshalIndent(r.comps, "", "  ")
	if err != nil {
		return fmt.Errorf("comps: marshal store: %w", err)
	}
	data = append(data, '\n')
	if err := r.fs.WriteStore(data); err != nil {
		return fmt.Errorf("comps: persist: %w", err)
	}
	r.lastSum = checksum.Sum(data)
	return nil
}

// LastWrittenSum returns the checksum of the store bytes this process last
// read or wrote. The watcher uses it to ignore the process's own writes.
func (r *Repository) LastWrittenSum() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSum
}

// Add inserts a fresh comp with empty notes, items, and tags.
func (r *Repository) Add(name string) error {
	key := models.NormalizeName(name)
	if key == "" {
		return fmt.Errorf("comps: name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.comps[key]; ok {
		return apperr.ErrDuplicateName
	}
	r.comps[key] = models.Comp{
		Items:      []string{},
		Tags:       []string{},
		LastEdited: r.now(),
	}
	if err := r.persistLocked(); err != nil {
		delete(r.comps, key)
		return err
	}
	return nil
}

// Update applies a partial mutation to the named comp, bumps LastEdited,
// and persists. Rolls back the in-memory record when the write fails.
func (r *Repository) Update(name string, f Fields) error {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.comps[key]
	if !ok {
		return apperr.ErrNotFound
	}
	r.comps[key] = applyFields(prev, f, r.now())
	if err := r.persistLocked(); err != nil {
		r.comps[key] = prev
		return err
	}
	return nil
}

// StageNotes mutates the named comp's notes in memory only, bumping
// LastEdited. The autosave layer is responsible for calling Save later.
func (r *Repository) StageNotes(name, notes string) error {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.comps[key]
	if !ok {
		return apperr.ErrNotFound
	}
	prev.Notes = notes
	prev.LastEdited = r.now()
	r.comps[key] = prev
	return nil
}

// Rename moves a comp to a new key, preserving all other fields and bumping
// LastEdited. Renaming a comp onto itself (case change) is allowed.
func (r *Repository) Rename(oldName, newName string) error {
	oldKey := models.NormalizeName(oldName)
	newKey := models.NormalizeName(newName)
	if newKey == "" {
		return fmt.Errorf("comps: new name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.comps[oldKey]
	if !ok {
		return apperr.ErrNotFound
	}
	if newKey != oldKey {
		if _, taken := r.comps[newKey]; taken {
			return apperr.ErrDuplicateName
		}
	}

	rec.LastEdited = r.now()
	prev := r.comps[oldKey]
	delete(r.comps, oldKey)
	r.comps[newKey] = rec

	if err := r.persistLocked(); err != nil {
		delete(r.comps, newKey)
		r.comps[oldKey] = prev
		return err
	}
	return nil
}

// Delete removes a comp. The last remaining comp can never be deleted.
// Rolls back the removal when the write fails.
func (r *Repository) Delete(name string) error {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.comps[key]
	if !ok {
		return apperr.ErrNotFound
	}
	if len(r.comps) == 1 {
		return apperr.ErrLastComp
	}

	delete(r.comps, key)
	if err := r.persistLocked(); err != nil {
		r.comps[key] = prev
		return err
	}
	return nil
}

// Get returns the named comp.
func (r *Repository) Get(name string) (models.Comp, error) {
	key := models.NormalizeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.comps[key]
	if !ok {
		return models.Comp{}, apperr.ErrNotFound
	}
	return cloneComp(rec), nil
}

// All returns every comp, name-sorted.
func (r *Repository) All() []Named {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allLocked()
}

func (r *Repository) allLocked() []Named {
	out := make([]Named, 0, len(r.comps))
	for name, rec := range r.comps {
		out = append(out, Named{Name: name, Comp: cloneComp(rec)})
	}
	sort.Slice(out, func(i, j int) bool { return r.coll.CompareString(out[i].Name, out[j].Name) < 0 })
	return out
}

// Count returns the number of comps in the store.
func (r *Repository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.comps)
}

// Snapshot returns a deep copy of the store, for export.
func (r *Repository) Snapshot() models.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(models.Store, len(r.comps))
	for name, rec := range r.comps {
		out[name] = cloneComp(rec)
	}
	return out
}

// Revision returns a short fingerprint of the current store content.
func (r *Repository) Revision() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(r.comps)
	if err != nil {
		return "", fmt.Errorf("comps: marshal store: %w", err)
	}
	return checksum.Short(data), nil
}

func applyFields(rec models.Comp, f Fields, now time.Time) models.Comp {
	if f.Notes != nil {
		rec.Notes = *f.Notes
	}
	if f.Items != nil {
		rec.Items = cloneStrings(*f.Items)
	}
	if f.Tags != nil {
		rec.Tags = cloneStrings(*f.Tags)
	}
	if f.Color != nil {
		rec.Color = *f.Color
	}
	rec.LastEdited = now
	return rec
}

func cloneComp(rec models.Comp) models.Comp {
	rec.Items = cloneStrings(rec.Items)
	rec.Tags = cloneStrings(rec.Tags)
	return rec
}

// cloneStrings copies a slice, keeping the result non-nil so empty
// sequences serialize as [] rather than null.
func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

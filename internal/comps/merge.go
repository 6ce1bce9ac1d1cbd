package comps

import (
	"fmt"
	"sort"

	"github.com/starford/gebo/internal/models"
)

// Merge inserts imported comps under collision-safe names and persists the
// merged store in one write. Existing records are never overwritten: a
// taken name gets the suffix "-imported", then "-imported-2", and so on.
// Returns the mapping from incoming name to the name actually inserted.
func (r *Repository) Merge(in models.Store) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Deterministic insertion order so suffix numbering is stable.
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	now := r.now()
	inserted := make(map[string]string, len(in))
	for _, name := range names {
		key := models.NormalizeName(name)
		if key == "" {
			continue
		}
		target := r.freeNameLocked(key)
		r.comps[target] = NormalizeComp(in[name], now)
		inserted[name] = target
	}

	if err := r.persistLocked(); err != nil {
		for _, target := range inserted {
			delete(r.comps, target)
		}
		return nil, err
	}
	return inserted, nil
}

// freeNameLocked returns base when it is unused, otherwise the first free
// name in the sequence base-imported, base-imported-2, base-imported-3, ...
func (r *Repository) freeNameLocked(base string) string {
	if _, taken := r.comps[base]; !taken {
		return base
	}
	candidate := base + "-imported"
	for n := 2; ; n++ {
		if _, taken := r.comps[candidate]; !taken {
			return candidate
		}
		candidate = fmt.Sprintf("%s-imported-%d", base, n)
	}
}

package index

import (
	"log/slog"

	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/markup"
	"github.com/starford/gebo/internal/models"
)

// Sync rebuilds the index from the repository:
//   - every comp in the store is upserted
//   - index rows whose comp no longer exists are deleted
//
// The store is small enough that unconditional upserts beat bookkeeping.
func Sync(db CompIndex, repo *comps.Repository, logger *slog.Logger) error {
	all := repo.All()

	indexed, err := db.AllNames()
	if err != nil {
		return err
	}

	live := make(map[string]struct{}, len(all))
	for _, n := range all {
		live[n.Name] = struct{}{}

		row := CompRow{
			Name:      n.Name,
			Display:   models.DisplayName(n.Name),
			Tags:      n.Comp.Tags,
			Items:     n.Comp.Items,
			UpdatedAt: n.Comp.LastEdited,
		}
		if err := db.UpsertComp(row, markup.StripTags(n.Comp.Notes)); err != nil {
			logger.Warn("sync: index failed", slog.String("name", n.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("name", n.Name))
		}
	}

	// Remove stale entries.
	for name := range indexed {
		if _, ok := live[name]; !ok {
			if err := db.DeleteComp(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("name", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("name", name))
			}
		}
	}

	return nil
}

// IndexComp upserts a single comp, for use after a targeted mutation.
func IndexComp(db CompIndex, name string, rec models.Comp) error {
	return db.UpsertComp(CompRow{
		Name:      name,
		Display:   models.DisplayName(name),
		Tags:      rec.Tags,
		Items:     rec.Items,
		UpdatedAt: rec.LastEdited,
	}, markup.StripTags(rec.Notes))
}

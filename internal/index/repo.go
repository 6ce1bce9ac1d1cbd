package index

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CompRow represents a row in the comps table.
type CompRow struct {
	Name      string
	Display   string
	Tags      []string
	Items     []string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Name    string `json:"name"`
	Display string `json:"display"`
	Snippet string `json:"snippet"`
}

// UpsertComp inserts or replaces a comp row and its FTS entry within a
// transaction. body is the tag-stripped notes text.
func (db *DB) UpsertComp(row CompRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(row.Tags)
	itemsJSON, _ := json.Marshal(row.Items)

	_, err = tx.Exec(`
		INSERT INTO comps (name, display, tags, items, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display    = excluded.display,
			tags       = excluded.tags,
			items      = excluded.items,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Name, row.Display, string(tagsJSON), string(itemsJSON), body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert comp: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Name, row.Display, body, strings.Join(row.Tags, " "), strings.Join(row.Items, " ")); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteComp removes a comp row and its FTS entry.
func (db *DB) DeleteComp(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, name)
	_, _ = tx.Exec(`DELETE FROM comps WHERE name = ?`, name)

	return tx.Commit()
}

// AllNames returns every indexed comp name.
func (db *DB) AllNames() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT name FROM comps`)
	if err != nil {
		return nil, fmt.Errorf("index: all names: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out[n] = struct{}{}
	}
	return out, rows.Err()
}

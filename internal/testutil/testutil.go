// Package testutil provides shared test helpers for setting up libraries
// and index databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/storage"
)

// TestLibrary creates a temporary library directory with a storage provider.
func TestLibrary(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// TestRepo creates a loaded repository over a temporary library.
func TestRepo(t *testing.T) (*comps.Repository, *storage.FS) {
	t.Helper()
	_, fs := TestLibrary(t)
	repo := comps.New(fs)
	if err := repo.Load(); err != nil {
		t.Fatal(err)
	}
	return repo, fs
}

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "gebo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

package index

// CompIndex defines the interface for comp indexing operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type CompIndex interface {
	UpsertComp(row CompRow, body string) error
	DeleteComp(name string) error
	AllNames() (map[string]struct{}, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies CompIndex at compile time.
var _ CompIndex = (*DB)(nil)

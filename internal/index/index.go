package index

// CommentIndex defines the interface for comment indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type CommentIndex interface {
	UpsertDocument(d DocumentRow, comments []CommentRow) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	ListDocuments(limit, offset int, sort string) ([]DocumentRow, int, error)
	ListComments(path string) ([]CommentRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Overview() ([]OverviewEntry, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies CommentIndex at compile time.
var _ CommentIndex = (*DB)(nil)

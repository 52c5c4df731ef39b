// Package docstore defines the unified interface for the document store that
// holds file metadata. The document store is the source of truth for the
// catalog — the blob store and search index are derived from it.
//
// All engines (Postgres, MySQL) implement the Store interface. Callers depend
// only on this package — never on a specific engine package.
package docstore

import "context"

// Store is the contract every document store engine must implement.
// Documents are keyed by their id; writes are whole-document replacements.
type Store interface {
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close() error

	// Get returns the document with the given id.
	// Returns a not-found error when no such document exists.
	Get(ctx context.Context, id string) (*Document, error)

	// Insert stores a new document. The id must not already exist;
	// a collision returns a conflict error.
	Insert(ctx context.Context, doc *Document) error

	// Replace overwrites the document whose id and version match doc.
	// When the stored version differs (a concurrent writer won), it returns
	// a conflict error and writes nothing. On success doc.Version is
	// advanced to the newly stored version.
	Replace(ctx context.Context, doc *Document) error

	// Delete removes the document with the given id.
	// Returns a not-found error when no such document exists.
	Delete(ctx context.Context, id string) error

	// List returns the summary projection of every document, in store-native
	// order. The scan is unbounded.
	List(ctx context.Context) ([]Summary, error)
}

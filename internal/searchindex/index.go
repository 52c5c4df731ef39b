// Package searchindex defines the interface for the keyword search index that
// mirrors file metadata. The index is a best-effort secondary store: entries
// may be stale or absent even when the catalog record exists, and mutation
// failures never fail the enclosing catalog operation.
package searchindex

import "context"

// Index is the contract every search backend must implement.
type Index interface {
	// Ping verifies the search backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Upsert writes the full projection, replacing any existing entry.
	Upsert(ctx context.Context, p *Projection) error

	// Merge folds the projection's fields into an existing entry,
	// creating one when absent.
	Merge(ctx context.Context, p *Projection) error

	// DeleteByID removes the entry for the given file id, if present.
	DeleteByID(ctx context.Context, id string) error

	// Query runs a keyword search over the given fields, returning at most
	// limit hits. Unlike the mutation methods, a Query failure is
	// user-facing and must be reported.
	Query(ctx context.Context, q string, fields []string, limit int) ([]Hit, error)
}

// Projection is the indexed subset of a file document's fields.
type Projection struct {
	ID          string
	Title       string
	Description string
	Institution string
	Tags        []string
	UploadedAt  string
	BlobPath    string
}

// Hit is one search result: the matched file id and the stored field values.
type Hit struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

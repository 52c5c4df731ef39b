// Package redis provides a RediSearch implementation of searchindex.Index.
//
// Each file is stored as a Redis hash under KeyPrefix+id and indexed by a
// RediSearch full-text index over the searchable metadata fields.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/arkivio/arkiv/internal/searchindex"
	goredis "github.com/redis/go-redis/v9"
)

// Driver is a RediSearch implementation of searchindex.Index.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client  *goredis.Client
	index   string
	prefix  string
	timeout time.Duration
}

// New connects to Redis using the provided Config and returns a Driver.
// It validates the connection and ensures the search index exists before
// returning.
func New(ctx context.Context, cfg *searchindex.Config) (*Driver, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	d := &Driver{
		client:  client,
		index:   cfg.IndexName,
		prefix:  cfg.KeyPrefix,
		timeout: cfg.Timeout,
	}

	if err := d.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	if err := d.ensureIndex(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return d, nil
}

// ensureIndex creates the RediSearch index if it does not already exist.
func (d *Driver) ensureIndex(ctx context.Context) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	err := d.client.FTCreate(ctx, d.index,
		&goredis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{d.prefix},
		},
		&goredis.FieldSchema{FieldName: "title", FieldType: goredis.SearchFieldTypeText},
		&goredis.FieldSchema{FieldName: "description", FieldType: goredis.SearchFieldTypeText},
		&goredis.FieldSchema{FieldName: "institution", FieldType: goredis.SearchFieldTypeText},
		&goredis.FieldSchema{FieldName: "tags", FieldType: goredis.SearchFieldTypeTag, Separator: ","},
	).Err()
	if err != nil {
		if strings.Contains(err.Error(), "Index already exists") {
			return nil
		}
		return mapError(err, "failed to create search index")
	}
	return nil
}

// bound applies the configured per-call timeout.
func (d *Driver) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func (d *Driver) key(id string) string {
	return d.prefix + id
}

// fieldsOf flattens a projection into the hash representation RediSearch
// indexes. Tags are joined with the TAG field separator.
func fieldsOf(p *searchindex.Projection) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"institution": p.Institution,
		"tags":        strings.Join(p.Tags, ","),
		"uploadedAt":  p.UploadedAt,
		"blobPath":    p.BlobPath,
	}
}

// --- searchindex.Index implementation ---

// Ping verifies the Redis server is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	if err := d.client.Ping(ctx).Err(); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close releases the client's connection pool.
func (d *Driver) Close() error {
	return d.client.Close()
}

// Upsert replaces the indexed entry for p.ID with the full projection.
// The hash is deleted first so fields removed from the projection do not
// linger.
func (d *Driver) Upsert(ctx context.Context, p *searchindex.Projection) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	pipe := d.client.TxPipeline()
	pipe.Del(ctx, d.key(p.ID))
	pipe.HSet(ctx, d.key(p.ID), fieldsOf(p))
	if _, err := pipe.Exec(ctx); err != nil {
		return mapError(err, "failed to upsert index entry")
	}
	return nil
}

// Merge folds the projection's fields into the existing hash, creating it
// when absent. Hash writes are field-level merges by nature.
func (d *Driver) Merge(ctx context.Context, p *searchindex.Projection) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	if err := d.client.HSet(ctx, d.key(p.ID), fieldsOf(p)).Err(); err != nil {
		return mapError(err, "failed to merge index entry")
	}
	return nil
}

// DeleteByID removes the indexed entry for the given file id.
// Deleting a missing entry is not an error.
func (d *Driver) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	if err := d.client.Del(ctx, d.key(id)).Err(); err != nil {
		return mapError(err, "failed to delete index entry")
	}
	return nil
}

// Query runs a keyword search restricted to the given fields, returning at
// most limit hits.
func (d *Driver) Query(ctx context.Context, q string, fields []string, limit int) ([]searchindex.Hit, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	inFields := make([]interface{}, len(fields))
	for i, f := range fields {
		inFields[i] = f
	}

	res, err := d.client.FTSearchWithArgs(ctx, d.index, q, &goredis.FTSearchOptions{
		InFields:    inFields,
		LimitOffset: 0,
		Limit:       limit,
	}).Result()
	if err != nil {
		return nil, mapError(err, "search query failed")
	}

	hits := make([]searchindex.Hit, 0, len(res.Docs))
	for _, doc := range res.Docs {
		hits = append(hits, searchindex.Hit{
			ID:     strings.TrimPrefix(doc.ID, d.prefix),
			Fields: doc.Fields,
		})
	}
	return hits, nil
}

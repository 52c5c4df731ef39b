// Package postgres provides a PostgreSQL implementation of docstore.Store
// backed by pgxpool. Documents live in a single table as JSONB alongside an
// optimistic-concurrency version column.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arkivio/arkiv/internal/docstore"
	"github.com/arkivio/arkiv/internal/errs"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS files (
		id      TEXT PRIMARY KEY,
		doc     JSONB NOT NULL,
		version BIGINT NOT NULL DEFAULT 1
	)`

// Driver is a PostgreSQL implementation of docstore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL using the provided Config and returns a Driver.
// It validates the connection and ensures the files table exists before
// returning.
func New(ctx context.Context, cfg *docstore.Config) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindPersistence, "invalid postgres config", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindPersistence, "failed to create connection pool", err)
	}

	d := &Driver{pool: pool}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, mapError(err, "failed to ensure files table")
	}

	return d, nil
}

// buildDSN constructs the postgres connection string.
func buildDSN(cfg *docstore.Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, cfg.Password, cfg.Database, sslMode,
	)
}

// --- docstore.Store implementation ---

// Ping verifies the database is reachable by acquiring and releasing a connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool. Call when the application shuts down.
func (d *Driver) Close() error {
	d.pool.Close()
	return nil
}

// Get returns the document with the given id.
func (d *Driver) Get(ctx context.Context, id string) (*docstore.Document, error) {
	const q = `SELECT doc, version FROM files WHERE id = $1`

	var (
		raw     []byte
		version int64
	)
	if err := d.pool.QueryRow(ctx, q, id).Scan(&raw, &version); err != nil {
		return nil, mapError(err, "failed to read document")
	}

	var doc docstore.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.Wrap(errs.ErrKindPersistence, "stored document is not valid JSON", err)
	}
	doc.Version = version
	return &doc, nil
}

// Insert stores a new document with version 1.
func (d *Driver) Insert(ctx context.Context, doc *docstore.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errs.Wrap(errs.ErrKindPersistence, "failed to encode document", err)
	}

	const q = `INSERT INTO files (id, doc, version) VALUES ($1, $2, 1)`
	if _, err := d.pool.Exec(ctx, q, doc.ID, raw); err != nil {
		return mapError(err, "failed to insert document")
	}
	doc.Version = 1
	return nil
}

// Replace overwrites the stored document when its version matches doc.Version.
// A stale version returns a conflict error and writes nothing.
func (d *Driver) Replace(ctx context.Context, doc *docstore.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errs.Wrap(errs.ErrKindPersistence, "failed to encode document", err)
	}

	const q = `UPDATE files SET doc = $2, version = version + 1 WHERE id = $1 AND version = $3`
	tag, err := d.pool.Exec(ctx, q, doc.ID, raw, doc.Version)
	if err != nil {
		return mapError(err, "failed to replace document")
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.ErrKindConflict, "document was modified concurrently")
	}
	doc.Version++
	return nil
}

// Delete removes the document with the given id.
func (d *Driver) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`

	tag, err := d.pool.Exec(ctx, q, id)
	if err != nil {
		return mapError(err, "failed to delete document")
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.ErrKindNotFound, "document not found")
	}
	return nil
}

// List returns the summary projection of every document in store-native order.
func (d *Driver) List(ctx context.Context) ([]docstore.Summary, error) {
	const q = `SELECT doc FROM files`

	rows, err := d.pool.Query(ctx, q)
	if err != nil {
		return nil, mapError(err, "failed to list documents")
	}
	defer rows.Close()

	summaries := []docstore.Summary{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, mapError(err, "failed to scan document")
		}
		var doc docstore.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errs.Wrap(errs.ErrKindPersistence, "stored document is not valid JSON", err)
		}
		summaries = append(summaries, docstore.SummaryOf(&doc))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating documents")
	}
	return summaries, nil
}

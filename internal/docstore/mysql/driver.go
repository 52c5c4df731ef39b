// Package mysql provides a MySQL implementation of docstore.Store backed by
// database/sql. Documents live in a single table as JSON alongside an
// optimistic-concurrency version column.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/arkivio/arkiv/internal/docstore"
	"github.com/arkivio/arkiv/internal/errs"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS files (
		id      VARCHAR(64) PRIMARY KEY,
		doc     JSON NOT NULL,
		version BIGINT NOT NULL DEFAULT 1
	)`

// Driver is a MySQL implementation of docstore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db *sql.DB
}

// New opens a MySQL connection pool using the provided Config and returns a
// Driver. It validates the connection and ensures the files table exists
// before returning.
func New(ctx context.Context, cfg *docstore.Config) (*Driver, error) {
	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindPersistence, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := &Driver{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, mapError(err, "failed to ensure files table")
	}

	return d, nil
}

// buildDSN constructs the mysql connection string.
func buildDSN(cfg *docstore.Config) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, port, cfg.Database,
	)
}

// --- docstore.Store implementation ---

// Ping verifies the database is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool. Call when the application shuts down.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Get returns the document with the given id.
func (d *Driver) Get(ctx context.Context, id string) (*docstore.Document, error) {
	const q = `SELECT doc, version FROM files WHERE id = ?`

	var (
		raw     []byte
		version int64
	)
	if err := d.db.QueryRowContext(ctx, q, id).Scan(&raw, &version); err != nil {
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

	const q = `INSERT INTO files (id, doc, version) VALUES (?, ?, 1)`
	if _, err := d.db.ExecContext(ctx, q, doc.ID, raw); err != nil {
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

	const q = `UPDATE files SET doc = ?, version = version + 1 WHERE id = ? AND version = ?`
	res, err := d.db.ExecContext(ctx, q, raw, doc.ID, doc.Version)
	if err != nil {
		return mapError(err, "failed to replace document")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "failed to replace document")
	}
	if affected == 0 {
		return errs.New(errs.ErrKindConflict, "document was modified concurrently")
	}
	doc.Version++
	return nil
}

// Delete removes the document with the given id.
func (d *Driver) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = ?`

	res, err := d.db.ExecContext(ctx, q, id)
	if err != nil {
		return mapError(err, "failed to delete document")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "failed to delete document")
	}
	if affected == 0 {
		return errs.New(errs.ErrKindNotFound, "document not found")
	}
	return nil
}

// List returns the summary projection of every document in store-native order.
func (d *Driver) List(ctx context.Context) ([]docstore.Summary, error) {
	const q = `SELECT doc FROM files`

	rows, err := d.db.QueryContext(ctx, q)
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

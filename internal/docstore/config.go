package docstore

import "time"

// Engine identifies the document store backend.
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
)

// Config holds all settings needed to connect to and pool a document store.
type Config struct {
	// Engine is the store backend (e.g. EnginePostgres).
	Engine Engine

	// Connection
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // postgres only; "disable" when empty

	// Pool tuning
	MaxConns        int32         // maximum number of connections in the pool
	MinConns        int32         // minimum number of idle connections kept alive
	MaxConnLifetime time.Duration // maximum time a connection may be reused
	MaxConnIdleTime time.Duration // maximum time a connection may sit idle

	// Timeouts
	ConnectTimeout time.Duration // time limit for establishing a new connection
	QueryTimeout   time.Duration // default per-query deadline (applied by callers)
}

// DefaultConfig returns production-ready pool settings.
func DefaultConfig() *Config {
	return &Config{
		Engine:          EnginePostgres,
		Host:            "localhost",
		Port:            5432,
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		QueryTimeout:    30 * time.Second,
	}
}

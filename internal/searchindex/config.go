package searchindex

import "time"

// Config holds all settings needed to connect to a search backend.
type Config struct {
	// Addr is the host:port of the Redis server (RediSearch module required).
	Addr string

	// Password authenticates to the server. Empty means no auth.
	Password string

	// DB is the Redis logical database number.
	DB int

	// IndexName is the RediSearch index the catalog writes to.
	IndexName string

	// KeyPrefix prefixes every indexed document key.
	KeyPrefix string

	// Timeout bounds every call to the search backend. Exceeding it is an
	// adapter failure, never a hang.
	Timeout time.Duration
}

// DefaultConfig returns a sensible local-dev config.
func DefaultConfig(addr string) *Config {
	return &Config{
		Addr:      addr,
		IndexName: "arkiv-files",
		KeyPrefix: "arkiv:file:",
		Timeout:   3 * time.Second,
	}
}

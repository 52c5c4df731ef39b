// Package config loads the application configuration from a YAML file with
// environment-variable overrides for credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/arkivio/arkiv/internal/blobstore"
	"github.com/arkivio/arkiv/internal/docstore"
	"github.com/arkivio/arkiv/internal/searchindex"
	"go.yaml.in/yaml/v3"
)

// Config holds the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	BlobStore BlobStoreConfig `yaml:"blobstore"`
	DocStore  DocStoreConfig  `yaml:"docstore"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// BlobStoreConfig holds object storage settings.
type BlobStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
}

// Blobstore converts to the blobstore subsystem config.
func (c BlobStoreConfig) Blobstore() *blobstore.Config {
	return &blobstore.Config{
		Provider:  blobstore.ProviderMinIO,
		Endpoint:  c.Endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		UseSSL:    c.UseSSL,
		Region:    c.Region,
		Bucket:    c.Bucket,
	}
}

// DocStoreConfig holds document store settings.
type DocStoreConfig struct {
	Engine   string `yaml:"engine"` // postgres, mysql
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Docstore converts to the docstore subsystem config, keeping the default
// pool tuning.
func (c DocStoreConfig) Docstore() *docstore.Config {
	cfg := docstore.DefaultConfig()
	cfg.Engine = docstore.Engine(c.Engine)
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.User = c.User
	cfg.Password = c.Password
	cfg.Database = c.Database
	cfg.SSLMode = c.SSLMode
	return cfg
}

// SearchConfig holds search index settings. When Enabled is false the
// catalog runs with search mirroring disabled.
type SearchConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	IndexName      string `yaml:"index_name"`
	KeyPrefix      string `yaml:"key_prefix"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Searchindex converts to the searchindex subsystem config.
func (c SearchConfig) Searchindex() *searchindex.Config {
	cfg := searchindex.DefaultConfig(c.Addr)
	cfg.Password = c.Password
	cfg.DB = c.DB
	if c.IndexName != "" {
		cfg.IndexName = c.IndexName
	}
	if c.KeyPrefix != "" {
		cfg.KeyPrefix = c.KeyPrefix
	}
	if c.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	}
	return cfg
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		BlobStore: BlobStoreConfig{
			Endpoint: "localhost:9000",
			Bucket:   "files",
		},
		DocStore: DocStoreConfig{
			Engine: string(docstore.EnginePostgres),
			Host:   "localhost",
			Port:   5432,
		},
		Search: SearchConfig{
			Addr: "localhost:6379",
		},
	}
}

// Load reads a YAML configuration file at path and returns a Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadDefault tries to load "config.yaml" from the current directory.
// If the file does not exist, it returns sensible defaults.
// Any other error (e.g. permission denied, malformed YAML) is returned.
func LoadDefault() (*Config, error) {
	cfg, err := Load("config.yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = defaults()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides credentials from the environment so secrets stay out of
// the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ARKIV_BLOB_ACCESS_KEY"); v != "" {
		cfg.BlobStore.AccessKey = v
	}
	if v := os.Getenv("ARKIV_BLOB_SECRET_KEY"); v != "" {
		cfg.BlobStore.SecretKey = v
	}
	if v := os.Getenv("ARKIV_DB_PASSWORD"); v != "" {
		cfg.DocStore.Password = v
	}
	if v := os.Getenv("ARKIV_SEARCH_PASSWORD"); v != "" {
		cfg.Search.Password = v
	}
}

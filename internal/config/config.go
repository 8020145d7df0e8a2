// Package config loads the dbdesk process configuration from a YAML file
// with DBDESK_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/filestore"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DBDESK_"

// Config is the full process configuration.
type Config struct {
	Log        LogConfig                 `yaml:"log"`
	Server     ServerConfig              `yaml:"server"`
	Database   DatabaseConfig            `yaml:"database"`
	Connection database.ConnectionConfig `yaml:"connection"`
	Export     ExportConfig              `yaml:"export"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	StatementTimeout   time.Duration `yaml:"statement_timeout"`
	StrictTransactions bool          `yaml:"strict_transactions"`
}

// ExportConfig points the result exporter at an S3-compatible store.
// Exports are disabled while Endpoint is empty.
type ExportConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	UseSSL    bool          `yaml:"use_ssl"`
	Region    string        `yaml:"region"`
	Bucket    string        `yaml:"bucket"`
	URLTTL    time.Duration `yaml:"url_ttl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := database.DefaultOptions()
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			ConnectTimeout:   opts.ConnectTimeout,
			StatementTimeout: opts.StatementTimeout,
		},
		Connection: database.ConnectionConfig{Port: database.DefaultPort},
		Export: ExportConfig{
			Bucket: "dbdesk-exports",
			URLTTL: time.Hour,
		},
	}
}

// Load reads path on top of the defaults and applies environment
// overrides. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config", err)
		default:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, errs.Wrap(errs.ErrKindInvalidInput, "parse config "+path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown log settings and non-positive timeouts.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"database.connect_timeout", c.Database.ConnectTimeout},
		{"database.statement_timeout", c.Database.StatementTimeout},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("%s must be positive, got %s", t.name, t.d))
		}
	}

	if c.ExportEnabled() {
		if c.Export.Bucket == "" {
			return errs.New(errs.ErrKindInvalidInput, "export.bucket is required when export.endpoint is set")
		}
		if c.Export.URLTTL <= 0 {
			return errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("export.url_ttl must be positive, got %s", c.Export.URLTTL))
		}
	}
	return nil
}

// AutoConnect reports whether a startup connection is configured.
func (c *Config) AutoConnect() bool {
	return c.Connection.Host != ""
}

// ExportEnabled reports whether an object store is configured.
func (c *Config) ExportEnabled() bool {
	return c.Export.Endpoint != ""
}

// DatabaseOptions returns the session timeouts.
func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		ConnectTimeout:   c.Database.ConnectTimeout,
		StatementTimeout: c.Database.StatementTimeout,
	}
}

// FileStore returns the object store settings for the exporter.
func (c *Config) FileStore() *filestore.Config {
	return &filestore.Config{
		Provider:      filestore.ProviderMinIO,
		Endpoint:      c.Export.Endpoint,
		AccessKey:     c.Export.AccessKey,
		SecretKey:     c.Export.SecretKey,
		UseSSL:        c.Export.UseSSL,
		Region:        c.Export.Region,
		DefaultBucket: c.Export.Bucket,
	}
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from DBDESK_<SECTION>_<KEY> variables,
// e.g. DBDESK_SERVER_ADDR or DBDESK_CONNECTION_PASSWORD.
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"LOG_LEVEL":           &c.Log.Level,
		"LOG_FORMAT":          &c.Log.Format,
		"SERVER_ADDR":         &c.Server.Addr,
		"CONNECTION_HOST":     &c.Connection.Host,
		"CONNECTION_USERNAME": &c.Connection.Username,
		"CONNECTION_PASSWORD": &c.Connection.Password,
		"CONNECTION_DATABASE": &c.Connection.Database,
		"EXPORT_ENDPOINT":     &c.Export.Endpoint,
		"EXPORT_ACCESS_KEY":   &c.Export.AccessKey,
		"EXPORT_SECRET_KEY":   &c.Export.SecretKey,
		"EXPORT_REGION":       &c.Export.Region,
		"EXPORT_BUCKET":       &c.Export.Bucket,
	}
	durations := map[string]*time.Duration{
		"SERVER_READ_TIMEOUT":        &c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":       &c.Server.WriteTimeout,
		"DATABASE_CONNECT_TIMEOUT":   &c.Database.ConnectTimeout,
		"DATABASE_STATEMENT_TIMEOUT": &c.Database.StatementTimeout,
		"EXPORT_URL_TTL":             &c.Export.URLTTL,
	}
	bools := map[string]*bool{
		"DATABASE_STRICT_TRANSACTIONS": &c.Database.StrictTransactions,
		"EXPORT_USE_SSL":               &c.Export.UseSSL,
	}

	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	for key, dst := range durations {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return errs.Wrap(errs.ErrKindInvalidInput, EnvPrefix+key, err)
			}
			*dst = d
		}
	}
	for key, dst := range bools {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return errs.Wrap(errs.ErrKindInvalidInput, EnvPrefix+key, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup(EnvPrefix + "CONNECTION_PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, EnvPrefix+"CONNECTION_PORT", err)
		}
		c.Connection.Port = port
	}
	return nil
}

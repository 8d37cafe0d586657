// Package config loads pagesel settings from a YAML file.
//
// Every field has a default; a file only needs the keys it changes.
// Unknown keys are rejected so typos surface instead of being ignored.
//
//	database: pagesel.db
//	listen: 127.0.0.1:8080
//	page_size: 12
//	max_page_size: 500
//	request_timeout: 10s
//	resolve_limit: 1000
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable setting.
type Config struct {
	// Database is the SQLite file backing the record collection.
	Database string `yaml:"database"`

	// Listen is the address the HTTP server binds.
	Listen string `yaml:"listen"`

	// PageSize is the number of records per page.
	PageSize int `yaml:"page_size"`

	// MaxPageSize caps the limit a client may request.
	MaxPageSize int `yaml:"max_page_size"`

	// RequestTimeout bounds one page fetch or resolve request.
	RequestTimeout Duration `yaml:"request_timeout"`

	// ResolveLimit caps the ids returned by a resolution.
	ResolveLimit int `yaml:"resolve_limit"`

	// ShutdownTimeout bounds graceful server shutdown.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"10s\"", node.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database:        "pagesel.db",
		Listen:          "127.0.0.1:8080",
		PageSize:        12,
		MaxPageSize:     500,
		RequestTimeout:  Duration(10 * time.Second),
		ResolveLimit:    1000,
		ShutdownTimeout: Duration(5 * time.Second),
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	var errs []error
	if c.Database == "" {
		errs = append(errs, errors.New("database must not be empty"))
	}
	if c.Listen == "" {
		errs = append(errs, errors.New("listen must not be empty"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if c.MaxPageSize < c.PageSize {
		errs = append(errs, fmt.Errorf("max_page_size %d is smaller than page_size %d", c.MaxPageSize, c.PageSize))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.ResolveLimit <= 0 {
		errs = append(errs, fmt.Errorf("resolve_limit must be positive, got %d", c.ResolveLimit))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	return errors.Join(errs...)
}

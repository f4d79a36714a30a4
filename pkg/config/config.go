// Package config loads client settings from a YAML file and NEO4J_*
// environment variables.
package config

import (
	"fmt"
	"io"
	rawslog "log/slog"
	"net/url"
	"os"

	"github.com/neo4jrest/neo4j.go/pkg/connection"
	"github.com/neo4jrest/neo4j.go/pkg/constants"
	"github.com/neo4jrest/neo4j.go/pkg/logger"
	"github.com/neo4jrest/neo4j.go/pkg/logger/slog"
)

// Config is the file/env representation of a client.
type Config struct {
	URL         string    `mapstructure:"url" yaml:"url" validate:"required,http_url"`
	Database    string    `mapstructure:"database" yaml:"database" validate:"required"`
	Username    string    `mapstructure:"username" yaml:"username"`
	Password    string    `mapstructure:"password" yaml:"password"`
	Timeout     string    `mapstructure:"timeout" yaml:"timeout" validate:"omitempty,timeout"`
	MaxConns    int       `mapstructure:"max_conns" yaml:"max_conns" validate:"min=1,max=1000"`
	UseDNSCache bool      `mapstructure:"use_dns_cache" yaml:"use_dns_cache"`
	Log         LogConfig `mapstructure:"log" yaml:"log"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console text"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() *Config {
	return &Config{
		URL:      fmt.Sprintf("%s://%s:%d", constants.HTTPScheme, constants.DefaultHost, constants.DefaultPort),
		Database: constants.DefaultDatabase,
		MaxConns: constants.DefaultMaxConns,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ConnectionConfig converts c into a transport configuration. Username and
// Password, when set, take precedence over userinfo in URL.
func (c *Config) ConnectionConfig(log logger.Logger) (*connection.Config, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidURL, err)
	}
	timeout, err := connection.ParseTimeout(c.Timeout)
	if err != nil {
		return nil, err
	}

	cfg := connection.NewConfig(u)
	cfg.Database = c.Database
	cfg.Timeout = timeout
	cfg.MaxConns = c.MaxConns
	cfg.UseDNSCache = c.UseDNSCache
	if c.Username != "" {
		cfg.Auth = connection.Credentials{Username: c.Username, Password: c.Password}
	}
	if log != nil {
		cfg.Logger = log
	}
	return cfg, nil
}

// NewLogger returns the logger described by c.Log and a func releasing its
// log file. The json and console formats use zerolog, text uses log/slog.
func (c *Config) NewLogger(w io.Writer) (logger.Logger, func() error, error) {
	if c.Log.Format != "text" {
		ld, err := c.BuildLogger(w)
		if err != nil {
			return nil, nil, err
		}
		return ld.Handler(), ld.Close, nil
	}

	closeFn := func() error { return nil }
	if c.Log.Path != "" {
		f, err := os.OpenFile(c.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			return nil, nil, err
		}
		w, closeFn = f, f.Close
	}
	var level rawslog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = rawslog.LevelInfo
	}
	h := rawslog.NewTextHandler(w, &rawslog.HandlerOptions{Level: level})
	return slog.New(h), closeFn, nil
}

// BuildLogger creates the zerolog logger described by c.Log. Output goes to
// Log.Path when set, otherwise to w.
func (c *Config) BuildLogger(w io.Writer) (*logger.LogData, error) {
	return logger.New().
		FromBuffer(w).
		FromPath(c.Log.Path).
		Level(c.Log.Level).
		Console(c.Log.Format == "console").
		Make()
}

// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package msgbackup

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exerrors"
	"gopkg.in/yaml.v3"

	"go.mau.fi/msgbackup/store/sqlstore"
	waLog "go.mau.fi/msgbackup/util/log"
)

// ExampleConfig is the commented example config. It also provides the default values.
//
//go:embed example-config.yaml
var ExampleConfig []byte

type DatabaseConfig struct {
	Type string `yaml:"type"`
	URI  string `yaml:"uri"`
}

type StreamConfig struct {
	Compress     bool `yaml:"compress"`
	MaxFrameSize int  `yaml:"max_frame_size"`
}

type RestoreConfig struct {
	// FailOnAnyError aborts the whole import if a single frame fails to restore.
	FailOnAnyError bool `yaml:"fail_on_any_error"`
	// CommitOnCancel commits the frames restored so far if the import is cancelled.
	CommitOnCancel bool `yaml:"commit_on_cancel"`
}

type LoggingConfig struct {
	MinLevel string `yaml:"min_level"`
}

// Config contains everything needed to open the database and run backup passes.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Stream   StreamConfig   `yaml:"stream"`
	Restore  RestoreConfig  `yaml:"restore"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DefaultConfig returns the config used for fields that aren't set in the YAML file.
func DefaultConfig() *Config {
	var cfg Config
	exerrors.PanicIfNotNil(yaml.Unmarshal(ExampleConfig, &cfg))
	return &cfg
}

// ParseConfig parses the given YAML on top of the default config.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML config file at the given path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

func (cfg *Config) validate() error {
	if cfg.Database.Type == "" {
		return fmt.Errorf("%w: database type is not set", ErrInvalidConfig)
	} else if cfg.Database.URI == "" {
		return fmt.Errorf("%w: database URI is not set", ErrInvalidConfig)
	} else if cfg.Stream.MaxFrameSize < 0 {
		return fmt.Errorf("%w: max frame size can't be negative", ErrInvalidConfig)
	}
	return nil
}

// ExportOptions returns the stream options from the config. App versions must be filled by the caller.
func (cfg *Config) ExportOptions() ExportOptions {
	return ExportOptions{
		Compress:     cfg.Stream.Compress,
		MaxFrameSize: cfg.Stream.MaxFrameSize,
	}
}

func (cfg *Config) ImportOptions() ImportOptions {
	return ImportOptions{
		Compress:       cfg.Stream.Compress,
		MaxFrameSize:   cfg.Stream.MaxFrameSize,
		FailOnAnyError: cfg.Restore.FailOnAnyError,
		CommitOnCancel: cfg.Restore.CommitOnCancel,
	}
}

// NewLogger creates a zerolog-backed logger writing to out at the configured level.
func (cfg *Config) NewLogger(out io.Writer) waLog.Logger {
	log := zerolog.New(out).
		Level(waLog.ParseLevel(cfg.Logging.MinLevel)).
		With().Timestamp().Logger()
	return waLog.Zerolog(log)
}

// OpenDatabase opens the configured database and upgrades its schema.
func (cfg *Config) OpenDatabase(ctx context.Context, log waLog.Logger) (*sqlstore.Container, error) {
	return sqlstore.New(ctx, cfg.Database.Type, cfg.Database.URI, log)
}

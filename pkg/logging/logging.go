// Package logging builds the process logger: a console writer plus a rotating
// log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultLevel      = "info"
	DefaultDirectory  = "logs"
	DefaultFileName   = "research_summary.log"
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
)

type Config struct {
	Level     string `yaml:"level"`
	Directory string `yaml:"directory"`
	FileName  string `yaml:"file_name"`
	// JSON switches the console writer from pretty output to JSON lines.
	JSON        bool `yaml:"json"`
	DisableFile bool `yaml:"disable_file"`
	MaxSizeMB   int  `yaml:"max_size_mb"`
	MaxBackups  int  `yaml:"max_backups"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	if strings.TrimSpace(c.Level) == "" {
		c.Level = DefaultLevel
	}
	if strings.TrimSpace(c.Directory) == "" {
		c.Directory = DefaultDirectory
	}
	if strings.TrimSpace(c.FileName) == "" {
		c.FileName = DefaultFileName
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = DefaultMaxBackups
	}
	return c
}

// Path returns the log file location.
func (c *Config) Path() string {
	return filepath.Join(c.Directory, c.FileName)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger writing to console (usually os.Stderr) and, unless
// disabled, to the rotating log file. The returned closer flushes the file.
func New(cfg *Config, console io.Writer) (zerolog.Logger, io.Closer, error) {
	cfg = cfg.WithDefaults()
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var writers []io.Writer
	if console != nil {
		if cfg.JSON {
			writers = append(writers, console)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.DateTime})
		}
	}
	var closer io.Closer = nopCloser{}
	if !cfg.DisableFile {
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   cfg.Path(),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		writers = append(writers, file)
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

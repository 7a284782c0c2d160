// Package logging configures the process-wide zerolog logger and hands out
// component-tagged loggers.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"

	FieldComponent = "component"
	FieldProvider  = "provider"
)

// Config controls the global logger.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// ConfigFromEnv reads VOXBRIDGE_LOG_LEVEL and VOXBRIDGE_LOG_FORMAT.
func ConfigFromEnv() Config {
	return Config{
		Level:  getEnvOrDefault("VOXBRIDGE_LOG_LEVEL", "info"),
		Format: getEnvOrDefault("VOXBRIDGE_LOG_FORMAT", FormatConsole),
		Output: os.Stderr,
	}
}

// Init installs the global logger. Unknown levels fall back to info.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case FormatConsole, "pretty":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str(FieldComponent, name).Logger()
}

// Redact masks a secret for logging: "sk-…abcd". Short secrets are fully masked.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:3] + "…" + secret[len(secret)-4:]
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

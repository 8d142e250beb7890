package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fundingthecommons/impactful-events/internal/cascade"
)

// Config captures environment driven configuration values for the agenda service.
type Config struct {
	HTTPPort   int
	SQLiteDSN  string
	APIToken   string
	MaxCascade int
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required values and malformed
// entries are reported together so operators see every problem at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:   8080,
		SQLiteDSN:  "file:agenda.db?_foreign_keys=on",
		MaxCascade: cascade.DefaultMaxCascade,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("AGENDA_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "AGENDA_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("AGENDA_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if token := strings.TrimSpace(os.Getenv("AGENDA_API_TOKEN")); token == "" {
		missing = append(missing, "AGENDA_API_TOKEN")
	} else {
		cfg.APIToken = token
	}

	if boundValue := strings.TrimSpace(os.Getenv("AGENDA_MAX_CASCADE")); boundValue != "" {
		bound, err := strconv.Atoi(boundValue)
		if err != nil || bound <= 0 {
			invalid = append(invalid, "AGENDA_MAX_CASCADE")
		} else {
			cfg.MaxCascade = bound
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

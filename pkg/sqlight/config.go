package sqlight

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrMissingDatabase reports a configuration without a database file.
var ErrMissingDatabase = errors.New("no database configured")

// Config describes how to open a database handle. It is read once by Open and
// never mutated afterwards.
type Config struct {
	// Database is the sqlite database file. Required. The engine's special
	// targets (for example ":memory:") are forwarded as-is.
	Database string
	// TemplatesDir is the default directory for resolving templated
	// statements whose directory was deferred at construction.
	TemplatesDir string
	// Autocommit disables the implicit transaction: every statement takes
	// effect immediately.
	Autocommit bool
	// Params are engine pass-through connection parameters, forwarded
	// verbatim as DSN query parameters, for example
	// "_pragma": "busy_timeout(5000)".
	Params map[string]string
}

func (c *Config) dsn() string {
	if len(c.Params) == 0 {
		return c.Database
	}

	q := url.Values{}
	for k, v := range c.Params {
		q.Set(k, v)
	}

	return c.Database + "?" + q.Encode()
}

// FromEnv builds a Config from the environment. When envFile is non-empty it
// is loaded as a dotenv file first; variables already present in the
// environment win over the file.
//
// Recognized variables: SQLIGHT_DATABASE (required), SQLIGHT_TEMPLATES_DIR,
// SQLIGHT_AUTOCOMMIT (strconv.ParseBool syntax).
func FromEnv(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Database:     os.Getenv("SQLIGHT_DATABASE"),
		TemplatesDir: os.Getenv("SQLIGHT_TEMPLATES_DIR"),
	}

	if cfg.Database == "" {
		return nil, ErrMissingDatabase
	}

	if v := os.Getenv("SQLIGHT_AUTOCOMMIT"); v != "" {
		autocommit, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parsing SQLIGHT_AUTOCOMMIT: %w", err)
		}

		cfg.Autocommit = autocommit
	}

	return cfg, nil
}

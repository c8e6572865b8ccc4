// Package migrate applies numbered SQL script files to a sqlight database.
//
// Migration files live in one directory and are named <version>_<name>.sql,
// for example 1721800255_create_topics.sql. Run applies every file with a
// version greater than the last recorded one, in ascending version order, and
// records each run in the sqlight_migrations table. Each migration is
// committed explicitly; a failing script is rolled back, leaving earlier
// migrations durable.
package migrate

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sllt/sqlight/pkg/sqlight"
)

const (
	createMigrationsTable = `CREATE TABLE IF NOT EXISTS sqlight_migrations (
    version INTEGER NOT NULL,
    name TEXT NOT NULL,
    start_time TIMESTAMP NOT NULL,
    duration INTEGER,
    PRIMARY KEY (version)
);`

	getLastMigration   = `SELECT COALESCE(MAX(version), 0) AS version FROM sqlight_migrations;`
	insertMigrationRow = `INSERT INTO sqlight_migrations (version, name, start_time, duration) VALUES (?, ?, ?, ?);`
)

var (
	errInvalidMigrationFile = errors.New("migration file must be named <version>_<name>.sql")
	errPendingTransaction   = errors.New("handle has uncommitted work pending, commit or roll back before migrating")
)

type migration struct {
	version int64
	name    string
	file    string
}

// Run applies all pending migrations from dir. It is idempotent: versions at
// or below the last recorded one are skipped.
//
// Run commits through the provided handle, so it refuses to start while the
// handle has uncommitted work pending: committing migration bookkeeping must
// not silently commit the caller's statements along with it.
func Run(db *sqlight.Db, dir string) error {
	if db.InTransaction() {
		return errPendingTransaction
	}

	if err := db.Commit(sqlight.Raw(createMigrationsTable)); err != nil {
		return err
	}

	last, err := lastVersion(db)
	if err != nil {
		return err
	}

	migrations, err := readDir(dir)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= last {
			continue
		}

		start := time.Now()

		if _, err := db.ExecuteScript(sqlight.TemplateAt(m.file, dir)); err != nil {
			// Discard any partial effect of the failing script.
			_ = db.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}

		// Record and commit together, so the script and its bookkeeping are
		// durable as one unit.
		err := db.Commit(sqlight.Raw(insertMigrationRow),
			m.version, m.name, start, time.Since(start).Milliseconds())
		if err != nil {
			return fmt.Errorf("recording migration %d (%s): %w", m.version, m.name, err)
		}
	}

	return nil
}

func lastVersion(db *sqlight.Db) (int64, error) {
	row, err := db.FetchOne(sqlight.Raw(getLastMigration))
	if err != nil {
		return 0, err
	}

	return scalarInt(row)
}

// scalarInt extracts a single integer from a row in any of the standard
// shapes, so Run works regardless of the handle's configured row factory.
func scalarInt(row sqlight.Row) (int64, error) {
	var value any

	switch r := row.(type) {
	case []any:
		if len(r) != 1 {
			return 0, fmt.Errorf("expected one column, got %d", len(r))
		}

		value = r[0]
	case map[string]any:
		for _, v := range r {
			value = v
		}
	case *sqlight.Record:
		values := r.Values()
		if len(values) != 1 {
			return 0, fmt.Errorf("expected one column, got %d", len(values))
		}

		value = values[0]
	default:
		return 0, fmt.Errorf("unexpected row shape %T", row)
	}

	n, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("expected integer version, got %T", value)
	}

	return n, nil
}

func readDir(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	migrations := make([]migration, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m, err := parseName(entry.Name())
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	return migrations, nil
}

func parseName(file string) (migration, error) {
	base := strings.TrimSuffix(file, ".sql")

	version, name, ok := strings.Cut(base, "_")
	if !ok {
		return migration{}, fmt.Errorf("%w: %s", errInvalidMigrationFile, file)
	}

	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return migration{}, fmt.Errorf("%w: %s", errInvalidMigrationFile, file)
	}

	return migration{version: v, name: name, file: file}, nil
}

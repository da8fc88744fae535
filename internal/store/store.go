package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schemaSQL creates the population catalog, its column table and the
// node-set table.
//
//go:embed schema.sql
var schemaSQL string

// catalogMigration upgrades a catalog written at version-1 to version.
type catalogMigration struct {
	version int
	apply   func(*sql.DB) error
}

// catalogMigrations run in order on every Open. Version 1 is schema.sql
// as first released.
var catalogMigrations = []catalogMigration{
	{version: 2, apply: indexNodeSetPositions},
}

// catalogVersion is the user_version of a fully migrated catalog.
var catalogVersion = catalogMigrations[len(catalogMigrations)-1].version

// connectionPragmas configure every catalog connection.
var connectionPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is a SQLite population catalog: stored populations, their
// property columns and data tables, and the node-set definitions that
// apply to node populations.
type Store struct {
	db *sql.DB
}

// Open opens the catalog at path, creating it if needed, and brings its
// schema up to catalogVersion. The path ":memory:" gives a private
// in-memory catalog that lives until Close.
//
// Opening a catalog written by a newer snapquery fails rather than
// reading tables it does not know.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite allows a single writer, and an in-memory
	// catalog exists only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := prepareCatalog(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the catalog connection. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the catalog connection to tests and tools.
func (s *Store) DB() *sql.DB {
	return s.db
}

func prepareCatalog(db *sql.DB) error {
	for _, pragma := range connectionPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragmas: %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := migrateCatalog(db); err != nil {
		return fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return nil
}

// migrateCatalog applies the migrations newer than the stored
// user_version, each followed by a version bump.
func migrateCatalog(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > catalogVersion {
		return fmt.Errorf("catalog version %d is newer than supported version %d", version, catalogVersion)
	}

	for _, m := range catalogMigrations {
		if m.version <= version {
			continue
		}
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
	}
	return nil
}

// indexNodeSetPositions lets node sets be listed in file order without a
// sort. Catalogs created at v1 have node_sets but not the index.
func indexNodeSetPositions(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_node_sets_position ON node_sets(position)`)
	return err
}

// verifyPragma checks a pragma value. Used by tests.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

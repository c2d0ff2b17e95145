package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nhle/planner/internal/auth"
	"github.com/nhle/planner/internal/model"
)

// dialect captures the SQL differences between the supported backends.
type dialect struct {
	name          string
	driver        string
	floatType     string
	timestampType string

	// tableExists counts tables named by its single bind parameter.
	tableExists string

	// metadataExpr renders the expression extracting a top-level text
	// key from the metadata JSON column.
	metadataExpr func(key string) string
}

var (
	sqliteDialect = dialect{
		name:          "sqlite",
		driver:        "sqlite",
		floatType:     "REAL",
		timestampType: "DATETIME",
		tableExists:   "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
		metadataExpr: func(key string) string {
			return fmt.Sprintf("json_extract(metadata, '$.%s')", key)
		},
	}

	postgresDialect = dialect{
		name:          "postgres",
		driver:        "postgres",
		floatType:     "DOUBLE PRECISION",
		timestampType: "TIMESTAMPTZ",
		tableExists:   "SELECT COUNT(*) FROM information_schema.tables WHERE table_name=?",
		metadataExpr: func(key string) string {
			return fmt.Sprintf("(metadata::jsonb ->> '%s')", key)
		},
	}
)

// SQLStore implements Store on top of sqlx, backed by SQLite or Postgres.
type SQLStore struct {
	db      *sqlx.DB
	dialect dialect
}

// Open connects to the backend selected by cfg.Driver.
func Open(cfg model.DatabaseConfig) (*SQLStore, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "postgres":
		return NewPostgresStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open(sqliteDialect.driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return newSQLStore(db, sqliteDialect)
}

// NewPostgresStore connects to Postgres with dsn and runs any pending
// schema migrations.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn must not be empty")
	}
	db, err := sqlx.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return newSQLStore(db, postgresDialect)
}

func newSQLStore(db *sqlx.DB, d dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Dialect returns the backend name ("sqlite" or "postgres").
func (s *SQLStore) Dialect() string {
	return s.dialect.name
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	if err := s.db.Get(&tableCount, s.db.Rebind(s.dialect.tableExists), "schema_version"); err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.render(s.dialect)); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// tableFor maps a collection to its table.
func tableFor(coll model.Collection) (string, error) {
	switch coll {
	case model.CollectionSchedule:
		return "schedule_items", nil
	case model.CollectionTaskMaster:
		return "taskmaster_items", nil
	default:
		return "", fmt.Errorf("unknown collection %q", coll)
	}
}

// scope resolves the calling user and the collection's table.
func scope(ctx context.Context, coll model.Collection) (string, string, error) {
	userID, err := auth.UserFrom(ctx)
	if err != nil {
		return "", "", err
	}
	table, err := tableFor(coll)
	if err != nil {
		return "", "", err
	}
	return userID, table, nil
}

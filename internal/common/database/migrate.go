// internal/common/database/migrate.go
package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Schema names an embedded migration set.
type Schema string

const (
	SchemaNotification Schema = "notification"
	SchemaLocation     Schema = "location"
)

//go:embed migrations/notification/*.sql migrations/location/*.sql
var embeddedMigrations embed.FS

// ParseSchema validates a schema name given on the command line or in config.
func ParseSchema(name string) (Schema, error) {
	switch Schema(name) {
	case SchemaNotification, SchemaLocation:
		return Schema(name), nil
	}
	return "", fmt.Errorf("unknown schema %q (want notification or location)", name)
}

func (s Schema) dir() string {
	return "migrations/" + string(s)
}

// setup points goose at the embedded files. Each schema keeps its own version table
// so both sets can live in one database.
func (s Schema) setup() error {
	goose.SetBaseFS(embeddedMigrations)
	goose.SetTableName(fmt.Sprintf("goose_%s_version", s))
	return goose.SetDialect("postgres")
}

// MigrateUp applies all pending migrations of the schema.
func MigrateUp(db *sql.DB, s Schema) error {
	if err := s.setup(); err != nil {
		return err
	}
	if err := goose.Up(db, s.dir()); err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", s, err)
	}
	return nil
}

// MigrateDown rolls back the latest migration of the schema.
func MigrateDown(db *sql.DB, s Schema) error {
	if err := s.setup(); err != nil {
		return err
	}
	if err := goose.Down(db, s.dir()); err != nil {
		return fmt.Errorf("failed to roll back %s migration: %w", s, err)
	}
	return nil
}

// MigrationStatus prints the applied state of every migration of the schema.
func MigrationStatus(db *sql.DB, s Schema) error {
	if err := s.setup(); err != nil {
		return err
	}
	return goose.Status(db, s.dir())
}

// MigrationFiles lists the embedded migration file names of the schema.
func MigrationFiles(s Schema) ([]string, error) {
	entries, err := embeddedMigrations.ReadDir(s.dir())
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

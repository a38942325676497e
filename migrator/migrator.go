package migrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const schemaPlaceholder = "<SCHEMA_PLACEHOLDER>"

type migration struct {
	description string
	query       string
}

// in order! versions are the 1-based positions, never reorder or remove an entry
var migrations = []migration{
	{description: "status store", query: migration_1},
	{description: "bundle store", query: migration_2},
}

type Migrator interface {
	// Run creates the schema when missing and applies every migration newer than the last applied
	// one, all in a single transaction.
	Run(ctx context.Context, db *sqlx.DB, schemaName string) error
	// Version returns the last applied migration, 0 for a fresh schema.
	Version(ctx context.Context, db *sqlx.DB, schemaName string) (int, error)
}

type migrator struct {
}

func NewMigrator() Migrator {
	return &migrator{}
}

func (m *migrator) Run(ctx context.Context, db *sqlx.DB, schemaName string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration transaction failed")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s;`, schemaName))
	if err != nil {
		return errors.Wrapf(err, "create schema %s failed", schemaName)
	}
	err = createMigrationsTable(ctx, tx, schemaName)
	if err != nil {
		return err
	}
	currentVersion, err := lastAppliedVersion(ctx, tx, schemaName)
	if err != nil {
		return err
	}

	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}
		_, err = tx.ExecContext(ctx, strings.ReplaceAll(migration.query, schemaPlaceholder, schemaName))
		if err != nil {
			return errors.Wrapf(err, "migration %d (%s) failed", version, migration.description)
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.cg_migrations(version, description) VALUES($1, $2);`, schemaName),
			version, migration.description)
		if err != nil {
			return errors.Wrapf(err, "recording migration %d failed", version)
		}
		log.Info().Int("version", version).Str("description", migration.description).Str("schema", schemaName).Msg("applied migration")
	}
	return tx.Commit()
}

func (m *migrator) Version(ctx context.Context, db *sqlx.DB, schemaName string) (int, error) {
	var exists bool
	err := db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = 'cg_migrations');`, schemaName)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	version := 0
	err = db.GetContext(ctx, &version, fmt.Sprintf(`SELECT COALESCE(MAX(version), 0) FROM %s.cg_migrations;`, schemaName))
	return version, err
}

func createMigrationsTable(ctx context.Context, tx *sqlx.Tx, schemaName string) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.cg_migrations(
		"version" int NOT NULL,
		applied_at timestamp NOT NULL DEFAULT now(),
		description varchar NOT NULL DEFAULT '',
		CONSTRAINT pk_cg_migrations PRIMARY KEY (version)
	);`, schemaName)
	_, err := tx.ExecContext(ctx, query)
	return errors.Wrap(err, "create migrations table failed")
}

func lastAppliedVersion(ctx context.Context, tx *sqlx.Tx, schemaName string) (int, error) {
	version := 0
	err := tx.GetContext(ctx, &version, fmt.Sprintf(`SELECT COALESCE(MAX(version), 0) FROM %s.cg_migrations;`, schemaName))
	return version, errors.Wrap(err, "reading migration version failed")
}

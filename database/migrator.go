package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"

	"github.com/servicekit-go/servicekit/config"
)

// versionTable is where tern records the applied schema version.
const versionTable = "schema_version"

// Migrate runs database migrations using jackc/tern.
//
// Services own their migration files and pass them in as an fs.FS,
// typically an embed.FS subtree; the kit only owns the runner. A
// single direct connection is used since migrations are a one-time
// startup action.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, migrations fs.FS) error {
	conn, err := pgx.Connect(ctx, buildDSN(cfg))
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	if err := m.LoadMigrations(migrations); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}

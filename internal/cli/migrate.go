package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"pixel-quiz-service/internal/config"
	"pixel-quiz-service/internal/infra/mysql"
	pgmigrations "pixel-quiz-service/internal/infra/postgres/migrations"
	"pixel-quiz-service/internal/infra/sqlite"
)

// NewMigrateCmd applies database migrations for the configured SQL driver.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, log, err := loadConfigAndLogger(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return runMigrationsWithConfig(ctx, cfg, log)
	case config.DriverSQLite:
		// Schema is created on open.
		store, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		log.Info("sqlite schema ready", zap.String("path", cfg.SQLite.Path))
		return store.Close()
	case config.DriverMySQL:
		store, err := mysql.Open(cfg.MySQL.DSN)
		if err != nil {
			return err
		}
		log.Info("mysql schema ready")
		return store.Close()
	default:
		return fmt.Errorf("storage driver %q has no migrations", cfg.Storage.Driver)
	}
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.Postgres.URL == "" {
		return errors.New("postgres url not configured")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.Info("migrations applied", zap.String("group", group.String()))
	return nil
}

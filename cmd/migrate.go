package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/alicomputer/retail-pos/internal"
	"github.com/alicomputer/retail-pos/internal/audit"
	identityDatamodel "github.com/alicomputer/retail-pos/internal/core/datamodel/identity"
	kvDatamodel "github.com/alicomputer/retail-pos/internal/core/datamodel/kv"
	"github.com/alicomputer/retail-pos/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Database.Source == "" {
		return fmt.Errorf("migrate: database.source is not set")
	}
	lg := initLogger(cfg)

	if cfg.Database.DriverName() == "sqlite3" {
		return migrateSQLite(ctx, cfg.Database)
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer db.Close()
	goose.SetTableName("schema_migrations")

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, db, migrateDir); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}

	lg.Info("migration finished", "command", command, "dir", migrateDir)
	return nil
}

// migrateSQLite builds the schema for local sqlite files, which the goose migrations do not target.
func migrateSQLite(ctx context.Context, cfg internal.DatabaseConfig) error {
	db, err := initDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	gdb, err := initGorm(cfg, db)
	if err != nil {
		return err
	}
	if migrateRollback {
		return gdb.WithContext(ctx).Migrator().DropTable(&identityDatamodel.Identity{}, &kvDatamodel.Entry{}, "session_events")
	}
	if err := gdb.WithContext(ctx).AutoMigrate(&identityDatamodel.Identity{}, &kvDatamodel.Entry{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := audit.NewRecorder(db, logger.LoggerWrapper()).EnsureSchema(ctx); err != nil {
		return err
	}
	logger.LoggerWrapper().Info("sqlite schema ready")
	return nil
}

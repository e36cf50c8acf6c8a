package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alicomputer/retail-pos/internal/identity"
	identityPostgres "github.com/alicomputer/retail-pos/internal/identity/postgres"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the demo identities",
	Long:  `Upsert the three demo identities (admin, manager, user) into the identities table.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if cfg.Database.Source == "" {
			log.Fatal("seed: database.source is not set")
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(cfg.Database, db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		repo := identityPostgres.NewIdentityRepository(gdb)
		for _, ident := range identity.DemoIdentities(time.Now().UTC()) {
			if err := repo.Upsert(ctx, ident); err != nil {
				log.Fatalf("failed to seed %s: %v", ident.Email, err)
			}
			fmt.Printf("Seeded %s identity: %s\n", ident.Role, ident.Email)
		}
	},
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/listingpress/listingpress/internal/config"
	"github.com/listingpress/listingpress/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cfg.Database.URL == "" {
			return errors.New("DATABASE_URL environment variable is required")
		}

		pool, err := postgres.Initialize(cfg.Database)
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		defer pool.Close()

		fmt.Println("Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

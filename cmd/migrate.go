package cmd

import (
	"beatforge/config"
	"beatforge/db"
	"beatforge/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := db.ConnectDB(cfg); err != nil {
			return err
		}
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			return err
		}

		if err := db.ConnectGormDB(cfg); err != nil {
			return err
		}
		defer db.CloseGormDB()
		if err := db.MigrateReviewModels(); err != nil {
			return err
		}

		logger.Info("migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

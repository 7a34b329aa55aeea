package cmd

import (
	"context"
	"fmt"

	"beatforge/config"
	"beatforge/core/catalog"
	"beatforge/db"
	"beatforge/logger"
	"beatforge/repository"

	"github.com/spf13/cobra"
)

// sweepCmd runs one release sweep and exits. Meant for an external cron;
// overlapping with the in-server ticker is safe because the sweep is a
// single conditional update.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Activate beats whose scheduled release time has passed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := db.ConnectDB(cfg); err != nil {
			return err
		}
		defer db.DB.Close()

		svc := catalog.NewService(repository.NewMySQLBeatRepository(db.DB), nil, nil, nil)
		count, err := svc.ActivateScheduledBeats(context.Background())
		if err != nil {
			return err
		}
		logger.Info("sweep finished", logger.Int64("activated", count))
		fmt.Printf("activated %d beat(s)\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

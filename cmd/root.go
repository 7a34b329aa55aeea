package cmd

import (
	"fmt"
	"os"

	"beatforge/config"
	"beatforge/logger"
	"beatforge/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beatforge",
	Short: "Beatforge is a beat licensing storefront backend.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogPath,
			MaxSize:    cfg.LogMaxMB,
			MaxAge:     cfg.LogMaxAge,
			MaxBackups: 5,
			Compress:   true,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

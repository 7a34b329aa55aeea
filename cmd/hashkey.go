package cmd

import (
	"fmt"

	"beatforge/core/auth"

	"github.com/spf13/cobra"
)

// hashKeyCmd prints the bcrypt hash for an admin API key, for use as
// ADMIN_API_KEY_HASH.
var hashKeyCmd = &cobra.Command{
	Use:   "hash-key <api-key>",
	Short: "Print the bcrypt hash of an admin API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashKey(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashKeyCmd)
}

package cmd

import (
	"fmt"

	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret [secret]",
	Short: "Print a bcrypt hash for security.demo_secret_hash",
	Long:  `Hash a demo secret with the configured security.bcrypt_cost so it can be stored as security.demo_secret_hash instead of the plain secret.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		cost := cfg.Security.BCryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		hash, err := auth.HashSecret(args[0], cost)
		if err != nil {
			return fmt.Errorf("hash secret: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

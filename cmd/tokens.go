package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/codetrust-ai/codetrust-api/app/repository"
	"github.com/codetrust-ai/codetrust-api/config"

	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage password reset tokens",
}

var tokensPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired password reset tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		purged, err := repository.NewCredentialStore(db).PurgeExpiredResetTokens(ctx, time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Printf("purged: %d\n", purged)
		return nil
	},
}

func init() {
	tokensCmd.AddCommand(tokensPurgeCmd)
	rootCmd.AddCommand(tokensCmd)
}

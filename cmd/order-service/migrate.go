package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikeMC777/printshop-orders/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the catalog, order, payment and settings tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, log, db, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		log.Info("schema applied", zap.Int("statements", len(database.Schema)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/jon4hz/moodiary/internal/config"
	"github.com/jon4hz/moodiary/internal/storage"
	"github.com/jon4hz/moodiary/internal/storage/remote"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Run the schema migrations against the remote SQL database (postgres, mysql or sqlite urls).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !cfg.Remote.Enabled() {
			return errors.New("migrations need a remote database, set remote.url and remote.key")
		}

		backend, _, err := storage.Select(cfg)
		if err != nil {
			return err
		}
		defer backend.Close() //nolint:errcheck

		sqlDriver, ok := backend.(*remote.SQLDriver)
		if !ok {
			return errors.New("the configured remote does not support migrations, only database urls do")
		}
		if err := sqlDriver.Migrate(cmd.Context()); err != nil {
			return err
		}

		version, err := sqlDriver.MigrationVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Database migrations completed successfully! Dialect: %s, schema version: %d\n", sqlDriver.Dialect(), version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var resetCmdFlags struct {
	Yes bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all entries and non-admin users",
	Long:  `This command deletes every diary entry and every user that is not an administrator. Administrators are kept.`,
	RunE:  reset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetCmdFlags.Yes, "yes", false, "Confirm that all data should be deleted")

	rootCmd.AddCommand(resetCmd)
}

func reset(cmd *cobra.Command, _ []string) error {
	if !resetCmdFlags.Yes {
		return errors.New("refusing to delete data without --yes")
	}

	_, st, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	log.Info("Deleting all entries and non-admin users...", "connection", st.ConnectionType())
	if err := st.ClearAllData(cmd.Context(), ""); err != nil {
		return fmt.Errorf("failed to clear data: %w", err)
	}

	log.Info("Successfully cleared all data!")
	return nil
}

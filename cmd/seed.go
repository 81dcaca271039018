package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add sample users and entries",
	Long:  `Create the sample roster if it is missing and add a batch of sample entries.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, st, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := st.SeedData(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
		fmt.Printf("Created %d users and %d entries\n", res.Users, res.Entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

package cmd

import (
	"fmt"

	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display the active backend, the size of a local store and how many users and entries it holds, per mood.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, st, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats := st.Stats(cmd.Context())
		tr := i18n.New(cfg.GetLocale())

		fmt.Println("Database Statistics:")
		fmt.Printf("Connection: %s\n", st.ConnectionType())
		fmt.Printf("Users: %d (admins: %d)\n", stats.Users, stats.Admins)
		fmt.Printf("Entries: %d\n", stats.Entries)
		if size := stats.HumanStoreSize(); size != "" {
			fmt.Printf("Store size: %s\n", size)
		}

		if stats.Entries > 0 {
			fmt.Println("\nEntries per mood:")
			for _, m := range models.AllMoods() {
				if n := stats.ByMood[m]; n > 0 {
					fmt.Printf("  %s %-12s %d\n", m.Emoji(), tr.MoodLabel(m), n)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}

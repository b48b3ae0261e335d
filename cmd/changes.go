package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyrowatch/pyrowatch/internal/utils"
	"github.com/pyrowatch/pyrowatch/pkg/storage"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent stock changes (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		limit, _ := cmd.Flags().GetInt("limit")
		sinceStr, _ := cmd.Flags().GetString("since")

		absPath, err := utils.GetAbsDBPath(dbPath)
		if err != nil {
			return err
		}
		db, err := storage.Open(absPath)
		if err != nil {
			return err
		}
		defer db.Close()

		var changes []storage.ChangeRow
		if sinceStr != "" {
			since, err := time.Parse(time.RFC3339, sinceStr)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp (want RFC3339): %w", err)
			}
			changes, err = db.ListChangesSince(cmd.Context(), since)
			if err != nil {
				return err
			}
		} else {
			changes, err = db.ListRecentChanges(cmd.Context(), limit)
			if err != nil {
				return err
			}
		}

		for _, c := range changes {
			ts := c.OccurredAt.Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %-10s  %s  %q -> %q\n", ts, c.Kind, c.Title, c.Previous, c.Current)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().String("dbpath", "", "Path to SQLite state file (default: ~/.config/pyrowatch/pyrowatch.sqlite)")
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
	changesCmd.Flags().String("since", "", "Only show changes since this RFC3339 timestamp")
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pyrowatch/pyrowatch/internal/utils"
	"github.com/pyrowatch/pyrowatch/pkg/catalog"
	"github.com/pyrowatch/pyrowatch/pkg/monitor"
	"github.com/pyrowatch/pyrowatch/pkg/report"
	"github.com/pyrowatch/pyrowatch/pkg/storage"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single cycle and print the report to stdout",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rs, err := loadRules(cmd)
		if err != nil {
			return err
		}

		proxy, _ := cmd.Flags().GetString("proxy")
		fetcher, err := catalog.NewFetcher(proxy)
		if err != nil {
			return err
		}

		// Without --db the cycle is stateless: everything prints as new
		// and nothing is persisted.
		var db *storage.DB
		useDB, _ := cmd.Flags().GetBool("db")
		if useDB {
			dbPath, _ := cmd.Flags().GetString("dbpath")
			var lock *utils.DBLock
			db, lock, err = openState(dbPath)
			if err != nil {
				return err
			}
			defer lock.Unlock()
			defer db.Close()
		}

		res, err := monitor.RunCycle(cmd.Context(), monitor.Config{
			Sources: viper.GetStringSlice("sources"),
			Rules:   rs,
			Fetcher: fetcher,
			DB:      db,
			Log:     utils.Log,
		})
		if err != nil {
			return err
		}

		for _, fr := range res.Reports {
			for _, block := range fr.Blocks {
				fmt.Println(block.Content)
				fmt.Println()
			}
		}

		if len(res.Changes) > 0 {
			fmt.Println("Changes:")
			for _, line := range report.RenderChanges(res.Changes) {
				fmt.Printf("  %s\n", line)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("db", false, "Reconcile against and persist to the state database")
	scanCmd.Flags().String("dbpath", "", "Path to SQLite state file (default: ~/.config/pyrowatch/pyrowatch.sqlite)")
	scanCmd.Flags().String("rules", "", "Path to a YAML rules file overriding the built-in vocabulary")
}

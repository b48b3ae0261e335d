package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pyrowatch/pyrowatch/internal/utils"
	"github.com/pyrowatch/pyrowatch/pkg/catalog"
	"github.com/pyrowatch/pyrowatch/pkg/discord"
	"github.com/pyrowatch/pyrowatch/pkg/monitor"
	"github.com/pyrowatch/pyrowatch/pkg/publish"
	"github.com/pyrowatch/pyrowatch/pkg/rules"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the stock monitor loop until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'pyrowatch watch --help'", args[0])
		}

		interval, _ := cmd.Flags().GetInt("interval")
		if interval <= 0 {
			interval = viper.GetInt("interval")
		}
		if interval <= 0 {
			return errors.New("poll interval must be positive")
		}

		rs, err := loadRules(cmd)
		if err != nil {
			return err
		}

		proxy, _ := cmd.Flags().GetString("proxy")
		fetcher, err := catalog.NewFetcher(proxy)
		if err != nil {
			return err
		}

		dbPath, _ := cmd.Flags().GetString("dbpath")
		db, lock, err := openState(dbPath)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		defer db.Close()

		var messenger publish.Messenger
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if dryRun {
			utils.Log.Info("Dry run: Discord sync disabled.")
		} else {
			token := viper.GetString("discord.token")
			channel := viper.GetString("discord.channel")
			if token == "" || channel == "" {
				return errors.New("discord.token and discord.channel must be set in ~/.pyrowatch.yaml (or use --dry-run)")
			}
			messenger = discord.New(token, channel)
		}

		cfg := monitor.Config{
			Sources:   viper.GetStringSlice("sources"),
			Rules:     rs,
			Fetcher:   fetcher,
			DB:        db,
			Messenger: messenger,
			Log:       utils.Log,
		}
		if len(cfg.Sources) == 0 {
			return errors.New("no sources configured")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		utils.Log.Infof("Watching %d sources every %d minutes.", len(cfg.Sources), interval)
		err = monitor.Run(ctx, cfg, time.Duration(interval)*time.Minute)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// loadRules builds the ruleset from --rules, or the built-in default.
func loadRules(cmd *cobra.Command) (*rules.Ruleset, error) {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		return rules.Default(), nil
	}
	return rules.Load(path)
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Int("interval", 0, "Minutes between cycles (overrides the config file)")
	watchCmd.Flags().String("dbpath", "", "Path to SQLite state file (default: ~/.config/pyrowatch/pyrowatch.sqlite)")
	watchCmd.Flags().String("rules", "", "Path to a YAML rules file overriding the built-in vocabulary")
	watchCmd.Flags().Bool("dry-run", false, "Scrape and reconcile but skip the Discord sync")
}

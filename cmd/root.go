package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyrowatch/pyrowatch/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `
	 _ __  _   _ _ __ _____      ____ _| |_ ___| |__
	| '_ \| | | | '__/ _ \ \ /\ / / _` + "`" + ` | __/ __| '_ \
	| |_) | |_| | | | (_) \ V  V / (_| | || (__| | | |
	| .__/ \__, |_|  \___/ \_/\_/ \__,_|\__\___|_| |_|
	|_|    |___/

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pyrowatch",
	Short: "A firecracker stock monitor for the ekopyro.eu shop.",
	Long: LOGO + `pyrowatch scrapes the ekopyro.eu search pages on an interval, classifies
products against a rule table, tracks availability changes, and keeps one
always-current Discord status message per product family edited in place.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pyrowatch.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".pyrowatch")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.pyrowatch.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("discord.token", "")
	viper.SetDefault("discord.channel", "")
	viper.SetDefault("interval", 10)
	viper.SetDefault("sources", []string{
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=fp3",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=p1",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=petard",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=petarde",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=firecracker",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=cracker",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=banger",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=dum%20bum",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=zom%20bum",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=viper",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=original",
		"https://www.ekopyro.eu/page-search-eu/all/?s_keyword=cobra",
	})

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// Package commands implements the sodarota command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/sodarota/internal/config"
	"github.com/mmynk/sodarota/pkg/logging"
)

var (
	logLevel string
	envFile  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sodarota",
	Short: "SodaRota - shared soda purchase rotation",
	Long: `SodaRota keeps track of whose turn it is to buy the household soda.
Purchases happen every other day; the rotation, payment history and chat
live in a single document stored in SQLite, a JSON file or MongoDB.

This CLI runs the web server, hashes the admin password and prints the
upcoming schedule.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file loaded before reading the environment")
}

// loadConfig reads the configuration and installs the logger at the level
// chosen by --log-level or LOG_LEVEL.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadWithDotEnv(envFile)
	if err != nil {
		logging.Setup()
		return config.Config{}, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.SetupWithLevel(logging.ParseLevel(level))
	return cfg, nil
}

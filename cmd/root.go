package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/akashsiripuram/Nexus/internal/config"
	"github.com/akashsiripuram/Nexus/internal/ui"
	"github.com/akashsiripuram/Nexus/internal/version"
)

var (
	flagLogLevel  string
	flagLogFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "nexus",
	Short:   "Real-time chat relay for the Nexus task manager",
	Long:    `Nexus relays one-to-one chat between team members over WebSocket. Run "nexus serve" to start the relay, "nexus chat" to talk to a teammate from the terminal, and "nexus rooms" to see who is online.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

// loadConfig merges the persistent flags into opts and loads the config.
func loadConfig(opts config.Options) (*config.Config, error) {
	opts.LogLevel = flagLogLevel
	opts.LogFormat = flagLogFormat
	return config.Load(opts)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: console or json (env LOG_FORMAT)")
}

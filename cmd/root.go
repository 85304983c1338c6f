package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	apiURL     string
	statePath  string
	timeout    time.Duration
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// cfg is resolved once per invocation by the root command
var cfg internal.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "datawhisper",
	Short: "Chat with your spreadsheets from the terminal",
	Long: `A command-line client for the DataWhisper analysis service.

Upload an Excel or CSV file, then ask questions about it in plain language.
Answers may include line charts, which are rendered as tables.

The active session (session id, upload id, file name and profile) is kept in
a local state file, so a conversation can be resumed across invocations.

Quick Start:
  datawhisper upload sales.xlsx          # Start a session
  datawhisper chat "monthly sales trend"  # Ask a question
  datawhisper history --all              # Show the conversation
  datawhisper clear                      # Forget the session`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)

		loaded, err := internal.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if apiURL != "" {
			loaded.APIBaseURL = apiURL
		}
		if statePath != "" {
			loaded.StatePath = statePath
		}
		if timeout > 0 {
			loaded.Timeout = timeout
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		if !verbose && loaded.LogLevel != "" {
			internal.SetLogLevel(internal.ParseLogLevel(loaded.LogLevel))
		}
		cfg = loaded
		internal.LogDebug("Using API %s%s, state %s", cfg.APIBaseURL, cfg.APIPrefix, cfg.StatePath)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// transport failures were already reported by the error hook
		var te *internal.TransportError
		if !errors.As(err, &te) {
			internal.PrintError(os.Stderr, internal.UserMessage(err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.datawhisper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Backend base URL (default http://127.0.0.1:8000)")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "Session state database (default ~/.datawhisper/state.db)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (default 20s)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

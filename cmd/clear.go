package cmd

import (
	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the active session",
	Long: `Forget the active session locally. The conversation stays on the server;
the next upload starts a new session.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.store.Clear(cmd.Context()); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Session cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

package cmd

import (
	"fmt"

	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/spf13/cobra"
)

var statusRemote bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active session",
	Long: `Show the active session and the profile of its file.

With --remote the server's record of the session is fetched as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		sess, ok := a.store.Current()
		if !ok {
			printUploadInstructions(out)
			return nil
		}
		fmt.Fprint(out, internal.RenderSession(sess))

		if !statusRemote {
			return nil
		}
		remote, err := a.workflow.GetSession(cmd.Context(), sess.SessionID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Server status: %s\n", remote.Status)
		if !remote.CreatedAt.IsZero() {
			fmt.Fprintf(out, "Created:       %s\n", remote.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		if remote.CurrentUploadID != nil && *remote.CurrentUploadID != sess.UploadID {
			internal.PrintWarning(out, fmt.Sprintf("Server's current upload is %s, not %s", *remote.CurrentUploadID, sess.UploadID))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusRemote, "remote", false, "Also fetch the server-side session record")
}

package cmd

import (
	"fmt"

	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/spf13/cobra"
)

var uploadAppend bool

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a spreadsheet and start a session",
	Long: `Upload an Excel (.xlsx, .xls) or CSV file for analysis.

The server profiles the file and the new session becomes the active one.
With --append the file is added to the active session instead, keeping its
conversation history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sessionID := ""
		if uploadAppend {
			sess, err := a.requireSession()
			if err != nil {
				return err
			}
			sessionID = sess.SessionID
		}

		file, closer, err := internal.OpenUploadFile(args[0])
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx := cmd.Context()
		var res *internal.UploadResult
		err = internal.ShowProgress(ctx, fmt.Sprintf("Uploading %s", file.Name), func() error {
			var uploadErr error
			res, uploadErr = a.workflow.Upload(ctx, file, sessionID)
			return uploadErr
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		internal.PrintSuccess(out, fmt.Sprintf("Uploaded %s", res.Filename))
		fmt.Fprintln(out)
		fmt.Fprint(out, internal.RenderSession(*res))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolVar(&uploadAppend, "append", false, "Add the file to the active session")
}

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/spf13/cobra"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Ask a question about the uploaded file",
	Long: `Ask a question about the file of the active session.

With a message argument one question is sent. Without arguments questions are
read from standard input, one per line, until end of input.

Without an active session nothing is sent and upload instructions are shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		if internal.NewGuard(a.store).Resolve(internal.ViewChat) != internal.ViewChat {
			printUploadInstructions(out)
			return nil
		}
		sess, err := a.requireSession()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if len(args) > 0 {
			return chatTurn(ctx, out, a.workflow, sess, strings.Join(args, " "))
		}

		internal.PrintInfo(cmd.ErrOrStderr(), fmt.Sprintf("Chatting about %s. One question per line, end input to finish.", sess.Filename))
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if err := chatTurn(ctx, out, a.workflow, sess, line); err != nil {
				// already reported; keep the conversation going
				var te *internal.TransportError
				if errors.As(err, &te) {
					continue
				}
				return err
			}
		}
		return scanner.Err()
	},
}

func chatTurn(ctx context.Context, out io.Writer, wf *internal.Workflow, sess internal.Session, message string) error {
	var reply *internal.ChatReply
	err := internal.ShowProgress(ctx, "Thinking", func() error {
		var chatErr error
		reply, chatErr = wf.Chat(ctx, sess.SessionID, sess.UploadID, message)
		return chatErr
	})
	if err != nil {
		return err
	}
	fmt.Fprint(out, internal.RenderReply(reply))
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

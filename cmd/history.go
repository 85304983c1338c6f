package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/datawhisper/datawhisper-cli/internal/export"
	"github.com/spf13/cobra"
)

var (
	historyAll    bool
	historyCursor string
	historyLimit  int
	historyFormat string
	historyOutput string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the conversation of the active session",
	Long: `Show the messages of the active session, newest first.

One page is fetched by default; pass the printed cursor with --cursor to get
the next one, or use --all to fetch every page. With --format the messages are
exported (jsonl, md, yaml, json) to stdout or to --output.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.requireSession()
		if err != nil {
			return err
		}

		var exporter export.Exporter
		if historyFormat != "" {
			if exporter, err = export.NewExporter(historyFormat); err != nil {
				return err
			}
		}

		limit := historyLimit
		if limit <= 0 {
			limit = cfg.PageLimit
		}

		ctx := cmd.Context()
		var transcript *internal.Transcript
		next := ""
		if historyAll {
			if transcript, err = internal.CollectHistory(ctx, a.workflow, sess.SessionID, limit); err != nil {
				return err
			}
		} else {
			page, err := a.workflow.ListMessages(ctx, sess.SessionID, historyCursor, limit)
			if err != nil {
				return err
			}
			transcript = &internal.Transcript{SessionID: sess.SessionID, Messages: page.Items}
			next = page.Cursor()
		}
		transcript.Filename = sess.Filename

		out := cmd.OutOrStdout()
		if exporter != nil {
			return writeTranscript(out, exporter, transcript)
		}

		if len(transcript.Messages) == 0 {
			internal.PrintInfo(out, "No messages yet.")
			return nil
		}
		for i, m := range transcript.Messages {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, internal.RenderMessage(m))
		}
		if next != "" {
			fmt.Fprintln(out)
			internal.PrintInfo(out, fmt.Sprintf("More messages: datawhisper history --cursor %s", next))
		}
		return nil
	},
}

func writeTranscript(out io.Writer, exporter export.Exporter, transcript *internal.Transcript) error {
	if historyOutput == "" {
		return exporter.Export(transcript, out)
	}

	if err := os.MkdirAll(filepath.Dir(historyOutput), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(historyOutput)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", historyOutput, err)
	}
	if err := exporter.Export(transcript, file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to export session %s: %w", transcript.SessionID, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", historyOutput, err)
	}

	internal.PrintSuccess(out, fmt.Sprintf("Exported %d message(s) to %s", len(transcript.Messages), historyOutput))
	return nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "Fetch every page")
	historyCmd.Flags().StringVar(&historyCursor, "cursor", "", "Start after this message id")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Messages per page (default from config)")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "", "Export format (jsonl, md, yaml, json)")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "Export to this file instead of stdout")
	historyCmd.MarkFlagsMutuallyExclusive("all", "cursor")
}

package cmd

import (
	"fmt"
	"io"

	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/spf13/cobra"
)

// app wires the state database, session store and workflow for one command
type app struct {
	kv       *internal.SQLiteKV
	store    *internal.SessionStore
	workflow *internal.Workflow
}

func openApp(cmd *cobra.Command) (*app, error) {
	kv, err := internal.OpenSQLiteKV(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session state: %w", err)
	}
	store := internal.NewSessionStore(kv)
	store.Load(cmd.Context())

	errOut := cmd.ErrOrStderr()
	transport := internal.NewHTTPTransport(cfg, func(te *internal.TransportError) {
		internal.PrintError(errOut, te.Message())
	})

	return &app{
		kv:       kv,
		store:    store,
		workflow: internal.NewWorkflow(transport, store),
	}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		internal.LogWarn("Failed to close session state: %v", err)
	}
}

// requireSession returns the active session or ErrNoSession
func (a *app) requireSession() (internal.Session, error) {
	sess, ok := a.store.Current()
	if !ok {
		return sess, fmt.Errorf("%w: upload a file first with 'datawhisper upload <file>'", internal.ErrNoSession)
	}
	return sess, nil
}

func printUploadInstructions(w io.Writer) {
	internal.PrintInfo(w, "No active session. Upload a file to start one:")
	fmt.Fprintln(w, "  datawhisper upload <file.xlsx|file.csv>")
}

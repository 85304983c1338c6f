package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datawhisper/datawhisper-cli/internal"
	"github.com/datawhisper/datawhisper-cli/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliEnv is an isolated home, state database and fake backend
type cliEnv struct {
	t     *testing.T
	dir   string
	state string
	fb    *testutil.FakeBackend
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	t.Setenv("HOME", dir)
	for _, key := range []string{
		internal.EnvAPIBaseURL, internal.EnvAPIPrefix, internal.EnvTimeout,
		internal.EnvStatePath, internal.EnvLogLevel, internal.EnvPageLimit,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return &cliEnv{
		t:     t,
		dir:   dir,
		state: filepath.Join(dir, "state", "state.db"),
		fb:    testutil.NewFakeBackend(t),
	}
}

// run executes the root command with the env's backend and state
func (e *cliEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	full := append([]string{"--api", e.fb.URL(), "--state", e.state, "--timeout", "5s"}, args...)
	return execute(stdin, full...)
}

// execute runs rootCmd with fresh flag values
func execute(stdin string, args ...string) (string, string, error) {
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// seed plants an active session on the fake backend and in local state
func (e *cliEnv) seed(messages int) (string, string, []string) {
	e.t.Helper()
	sid, uid, ids := e.fb.SeedSession(messages)
	profile, err := json.Marshal(internal.CreateTestProfile(10))
	if err != nil {
		e.t.Fatalf("marshal profile: %v", err)
	}
	testutil.WriteStateKeys(e.t, e.state, map[string]string{
		internal.KeySessionID: sid,
		internal.KeyUploadID:  uid,
		internal.KeyFilename:  "a.xlsx",
		internal.KeyProfile:   string(profile),
	})
	return sid, uid, ids
}

// stored returns the session persisted in the state database
func (e *cliEnv) stored() (internal.Session, bool) {
	e.t.Helper()
	kv, err := internal.OpenSQLiteKV(e.state)
	if err != nil {
		e.t.Fatalf("OpenSQLiteKV() error = %v", err)
	}
	defer kv.Close()
	store := internal.NewSessionStore(kv)
	store.Load(context.Background())
	return store.Current()
}

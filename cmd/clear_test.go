package cmd

import (
	"strings"
	"testing"

	"github.com/datawhisper/datawhisper-cli/testutil"
)

func TestClearCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.seed(0)

	stdout, _, err := env.run("", "clear")
	if err != nil {
		t.Fatalf("clear error = %v", err)
	}
	if !strings.Contains(stdout, "Session cleared") {
		t.Errorf("stdout = %s", stdout)
	}
	if _, ok := env.stored(); ok {
		t.Error("session should be gone after clear")
	}
	if n := testutil.CountStateKeys(t, env.state); n != 0 {
		t.Errorf("state keys = %d, want 0", n)
	}

	// idempotent
	if _, _, err := env.run("", "clear"); err != nil {
		t.Fatalf("second clear error = %v", err)
	}

	stdout, _, err = env.run("", "chat", "hello")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	if !strings.Contains(stdout, "No active session") {
		t.Errorf("chat after clear should redirect:\n%s", stdout)
	}
}

package cmd

import (
	"net/http"
	"strings"
	"testing"

	"github.com/datawhisper/datawhisper-cli/testutil"
)

func TestStatusCommand(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run("", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(stdout, "No active session") {
		t.Errorf("stdout = %s", stdout)
	}

	sid, uid, _ := env.seed(0)
	stdout, _, err = env.run("", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{sid, uid, "a.xlsx", "10 rows"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if n := len(env.fb.Requests()); n != 0 {
		t.Errorf("local status should not contact the server, got %d request(s)", n)
	}
}

func TestStatusCommand_Remote(t *testing.T) {
	env := newCLIEnv(t)
	sid, _, _ := env.seed(0)

	stdout, _, err := env.run("", "status", "--remote")
	if err != nil {
		t.Fatalf("status --remote error = %v", err)
	}
	if !strings.Contains(stdout, "Server status: active") {
		t.Errorf("stdout = %s", stdout)
	}
	if req := env.fb.LastRequest(); req.Path != "/api/sessions/"+sid {
		t.Errorf("request path = %s", req.Path)
	}

	env.fb.FailNext(testutil.RouteSession, http.StatusNotFound, "session not found")
	_, stderr, err := env.run("", "status", "--remote")
	if err == nil || !strings.Contains(stderr, "session not found") {
		t.Errorf("err = %v, stderr = %q", err, stderr)
	}
	if _, ok := env.stored(); !ok {
		t.Error("a remote failure must not clear the local session")
	}
}

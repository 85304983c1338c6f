package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/datawhisper/datawhisper-cli/testutil"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := testutil.CreateTempDir(t)
	t.Setenv("HOME", home)
	for _, key := range []string{EnvAPIBaseURL, EnvAPIPrefix, EnvTimeout, EnvStatePath, EnvLogLevel, EnvPageLimit} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfig_Defaults(t *testing.T) {
	home := isolateEnv(t)
	chdir(t, testutil.CreateTempDir(t))

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL || cfg.APIPrefix != DefaultAPIPrefix {
		t.Errorf("api = %q%q", cfg.APIBaseURL, cfg.APIPrefix)
	}
	if cfg.Timeout != DefaultTimeout || cfg.PageLimit != DefaultPageLimit {
		t.Errorf("timeout/limit = %v/%d", cfg.Timeout, cfg.PageLimit)
	}
	if want := filepath.Join(home, ".datawhisper", "state.db"); cfg.StatePath != want {
		t.Errorf("StatePath = %q, want %q", cfg.StatePath, want)
	}
}

func TestLoadConfig_Layering(t *testing.T) {
	isolateEnv(t)
	dir := testutil.CreateTempDir(t)
	chdir(t, dir)

	configPath := testutil.WriteFile(t, dir, "config.yaml", `
api_base_url: http://file.example:9000
api_prefix: /v2
timeout: 5s
page_limit: 10
log_level: warn
state_path: ~/custom/state.db
`)
	testutil.WriteFile(t, dir, ".env", "DATAWHISPER_API_BASE_URL=http://dotenv.example\nDATAWHISPER_TIMEOUT=7\n")
	t.Setenv(EnvTimeout, "9s")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.APIBaseURL != "http://dotenv.example" {
		t.Errorf("APIBaseURL = %q, .env should override the file", cfg.APIBaseURL)
	}
	if cfg.Timeout != 9*time.Second {
		t.Errorf("Timeout = %v, process env should override .env", cfg.Timeout)
	}
	if cfg.APIPrefix != "/v2" || cfg.PageLimit != 10 || cfg.LogLevel != "warn" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "custom", "state.db"); cfg.StatePath != want {
		t.Errorf("StatePath = %q, want %q", cfg.StatePath, want)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "api_base_url: [unterminated"},
		{name: "bad timeout in file", file: "timeout: soon"},
		{name: "bad page limit env", env: map[string]string{EnvPageLimit: "many"}},
		{name: "non-positive page limit", env: map[string]string{EnvPageLimit: "0"}},
		{name: "bad timeout env", env: map[string]string{EnvTimeout: "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			dir := testutil.CreateTempDir(t)
			chdir(t, dir)
			path := filepath.Join(dir, "absent.yaml")
			if tt.file != "" {
				path = testutil.WriteFile(t, dir, "config.yaml", tt.file)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() should fail")
			}
		})
	}
}

func TestParseTimeout(t *testing.T) {
	tests := map[string]time.Duration{
		"15":     15 * time.Second,
		"1m":     time.Minute,
		" 250ms": 250 * time.Millisecond,
	}
	for in, want := range tests {
		got, err := parseTimeout(in)
		if err != nil || got != want {
			t.Errorf("parseTimeout(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

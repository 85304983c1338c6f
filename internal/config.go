package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds client settings
type Config struct {
	APIBaseURL string
	APIPrefix  string
	Timeout    time.Duration
	StatePath  string
	LogLevel   string
	PageLimit  int
}

const (
	DefaultAPIBaseURL = "http://127.0.0.1:8000"
	DefaultAPIPrefix  = "/api"
	DefaultTimeout    = 20 * time.Second
	DefaultPageLimit  = 50
)

// Environment variables read by LoadConfig
const (
	EnvAPIBaseURL = "DATAWHISPER_API_BASE_URL"
	EnvAPIPrefix  = "DATAWHISPER_API_PREFIX"
	EnvTimeout    = "DATAWHISPER_TIMEOUT"
	EnvStatePath  = "DATAWHISPER_STATE_PATH"
	EnvLogLevel   = "DATAWHISPER_LOG_LEVEL"
	EnvPageLimit  = "DATAWHISPER_PAGE_LIMIT"
)

// DefaultConfig returns the built-in settings
func DefaultConfig() Config {
	return Config{
		APIBaseURL: DefaultAPIBaseURL,
		APIPrefix:  DefaultAPIPrefix,
		Timeout:    DefaultTimeout,
		StatePath:  DefaultStatePath(),
		LogLevel:   "info",
		PageLimit:  DefaultPageLimit,
	}
}

// ConfigDir is ~/.datawhisper, or a relative directory when home is unknown
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".datawhisper"
	}
	return filepath.Join(home, ".datawhisper")
}

// DefaultConfigPath is the YAML config file location
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultStatePath is the session state database location
func DefaultStatePath() string {
	return filepath.Join(ConfigDir(), "state.db")
}

// LoadConfig layers defaults, the YAML file at configPath, a .env file in
// the working directory and the process environment, later sources winning.
// A missing config file or .env is not an error.
func LoadConfig(configPath string) (Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	if err := cfg.mergeFile(configPath); err != nil {
		return cfg, err
	}

	env, err := godotenv.Read()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			LogWarn("Ignoring unreadable .env file: %v", err)
		}
		env = map[string]string{}
	}
	for _, key := range []string{EnvAPIBaseURL, EnvAPIPrefix, EnvTimeout, EnvStatePath, EnvLogLevel, EnvPageLimit} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	if err := cfg.mergeEnv(env); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		LogDebug("No config file at %s", path)
		return nil
	}
	if err != nil {
		return &StorageError{Path: path, Op: "read", Err: err}
	}

	var file struct {
		APIBaseURL string `yaml:"api_base_url"`
		APIPrefix  string `yaml:"api_prefix"`
		Timeout    string `yaml:"timeout"`
		StatePath  string `yaml:"state_path"`
		LogLevel   string `yaml:"log_level"`
		PageLimit  int    `yaml:"page_limit"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return &ParseError{Source: "config", Key: path, Err: err}
	}

	if file.APIBaseURL != "" {
		c.APIBaseURL = file.APIBaseURL
	}
	if file.APIPrefix != "" {
		c.APIPrefix = file.APIPrefix
	}
	if file.Timeout != "" {
		d, err := parseTimeout(file.Timeout)
		if err != nil {
			return &ParseError{Source: "config", Key: "timeout", Err: err}
		}
		c.Timeout = d
	}
	if file.StatePath != "" {
		c.StatePath = expandHome(file.StatePath)
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	if file.PageLimit != 0 {
		c.PageLimit = file.PageLimit
	}
	return nil
}

func (c *Config) mergeEnv(env map[string]string) error {
	if v := env[EnvAPIBaseURL]; v != "" {
		c.APIBaseURL = v
	}
	if v, ok := env[EnvAPIPrefix]; ok {
		c.APIPrefix = v
	}
	if v := env[EnvTimeout]; v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return &ParseError{Source: "env", Key: EnvTimeout, Err: err}
		}
		c.Timeout = d
	}
	if v := env[EnvStatePath]; v != "" {
		c.StatePath = expandHome(v)
	}
	if v := env[EnvLogLevel]; v != "" {
		c.LogLevel = v
	}
	if v := env[EnvPageLimit]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ParseError{Source: "env", Key: EnvPageLimit, Err: err}
		}
		c.PageLimit = n
	}
	return nil
}

// Validate rejects settings the client cannot run with
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("api base url is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.PageLimit < 1 {
		return fmt.Errorf("page limit must be positive, got %d", c.PageLimit)
	}
	if c.StatePath == "" {
		return fmt.Errorf("state path is required")
	}
	return nil
}

// parseTimeout accepts Go durations ("15s") or plain seconds ("15")
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Package config resolves runtime settings from the environment and an
// optional YAML file in the payline home directory.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	apiURLVar   = "PAYLINE_API_URL"
	homeVar     = "PAYLINE_HOME"
	logLevelVar = "PAYLINE_LOG_LEVEL"
	disabledVar = "PAYLINE_DISABLED_FEATURES"

	DefaultAPIURL   = "https://api.payline.app"
	DefaultLogLevel = "info"

	configFile = "config.yaml"
	logFile    = "payline.log"
)

// Config is the resolved configuration.
type Config struct {
	APIURL           string
	Home             string
	LogLevel         string
	DisabledFeatures map[string]bool
	PollInterval     time.Duration
	PollCeiling      time.Duration
	StaleAfter       time.Duration
}

type fileConfig struct {
	APIURL           string        `yaml:"api_url"`
	LogLevel         string        `yaml:"log_level"`
	DisabledFeatures []string      `yaml:"disabled_features"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	PollCeiling      time.Duration `yaml:"poll_ceiling"`
	StaleAfter       time.Duration `yaml:"stale_after"`
}

// GetEnv returns the trimmed value of envVar, or defaultValue when unset.
func GetEnv(envVar, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadDotEnv copies variables from the given .env files into the process
// environment. Variables already set win; missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("config.LoadDotEnv: %w", err)
		}
	}
	return nil
}

// homeDir returns $PAYLINE_HOME or ~/.payline.
func homeDir() (string, error) {
	if dir := GetEnv(homeVar, ""); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".payline"), nil
}

// Load resolves the configuration. Precedence: environment, then
// $PAYLINE_HOME/config.yaml, then defaults. A missing file is not an error.
// Zero durations mean "use the component default".
func Load() (*Config, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		APIURL:           DefaultAPIURL,
		Home:             home,
		LogLevel:         DefaultLogLevel,
		DisabledFeatures: map[string]bool{},
	}

	fc, err := readFile(cfg.ConfigPath())
	if err != nil {
		return nil, err
	}
	if fc != nil {
		if fc.APIURL != "" {
			cfg.APIURL = fc.APIURL
		}
		if fc.LogLevel != "" {
			cfg.LogLevel = fc.LogLevel
		}
		addFeatures(cfg.DisabledFeatures, fc.DisabledFeatures)
		cfg.PollInterval = fc.PollInterval
		cfg.PollCeiling = fc.PollCeiling
		cfg.StaleAfter = fc.StaleAfter
	}

	cfg.APIURL = strings.TrimSuffix(GetEnv(apiURLVar, cfg.APIURL), "/")
	cfg.LogLevel = strings.ToLower(GetEnv(logLevelVar, cfg.LogLevel))
	if v := GetEnv(disabledVar, ""); v != "" {
		addFeatures(cfg.DisabledFeatures, strings.Split(v, ","))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

func addFeatures(dst map[string]bool, names []string) {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			dst[n] = true
		}
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q: must be an absolute http(s) URL", c.APIURL)
	}
	for name, d := range map[string]time.Duration{
		"poll_interval": c.PollInterval,
		"poll_ceiling":  c.PollCeiling,
		"stale_after":   c.StaleAfter,
	} {
		if d < 0 {
			return fmt.Errorf("invalid %s %s: must not be negative", name, d)
		}
	}
	return nil
}

// ConfigPath returns the YAML file location.
func (c *Config) ConfigPath() string { return filepath.Join(c.Home, configFile) }

// LogPath returns the log file location.
func (c *Config) LogPath() string { return filepath.Join(c.Home, logFile) }

// StoreDir returns the directory holding persisted session entries.
func (c *Config) StoreDir() string { return filepath.Join(c.Home, "session") }

package sandbox

import (
	"os"
	"regexp"
	"strconv"

	"github.com/BurntSushi/toml"
)

var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-.]+$`)

// Config holds the environment-driven settings for the remote workspace
// provider, plus a small set of non-secret tunables that may be layered
// in from an optional sandbox.toml overlay.
type Config struct {
	APIKey           string
	APIURL           string
	Target           string
	AutoStopInterval int // minutes; 0 disables auto-stop

	// Overlay-only tunables (never read from env; secrets never live here).
	BootstrapDirs   []string
	SessionTimeoutS int
}

// fileOverlay mirrors the subset of Config that sandbox.toml may set.
type fileOverlay struct {
	BootstrapDirs   []string `toml:"bootstrap_dirs"`
	SessionTimeoutS int      `toml:"session_timeout_seconds"`
}

func defaultConfig() *Config {
	return &Config{
		Target:           "us",
		AutoStopInterval: 30,
		BootstrapDirs:    []string{"src", "tests", "docs", "config"},
		SessionTimeoutS:  0,
	}
}

// LoadConfig reads DAYTONA_* environment variables and validates them.
// toml overlay fields, when tomlPath is non-empty and the file exists,
// are layered in beneath env vars (env always wins; secrets never live
// in the config file).
func LoadConfig(tomlPath string) (*Config, error) {
	cfg := defaultConfig()

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err == nil {
			var overlay fileOverlay
			if _, err := toml.DecodeFile(tomlPath, &overlay); err != nil {
				return nil, configErr("parse_toml", err)
			}
			if len(overlay.BootstrapDirs) > 0 {
				cfg.BootstrapDirs = overlay.BootstrapDirs
			}
			if overlay.SessionTimeoutS > 0 {
				cfg.SessionTimeoutS = overlay.SessionTimeoutS
			}
		}
	}

	apiKey := os.Getenv("DAYTONA_API_KEY")
	if apiKey == "" {
		return nil, configErr("DAYTONA_API_KEY", errMissingAPIKey)
	}
	if !apiKeyPattern.MatchString(apiKey) {
		return nil, configErr("DAYTONA_API_KEY", errInvalidAPIKey)
	}
	cfg.APIKey = apiKey

	cfg.APIURL = os.Getenv("DAYTONA_API_URL")

	if target := os.Getenv("DAYTONA_TARGET"); target != "" {
		cfg.Target = target
	}

	if raw := os.Getenv("DAYTONA_AUTO_STOP_INTERVAL"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, configErr("DAYTONA_AUTO_STOP_INTERVAL", err)
		}
		cfg.AutoStopInterval = n
	}

	return cfg, nil
}

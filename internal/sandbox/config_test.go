package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	t.Setenv("DAYTONA_API_KEY", "")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "DAYTONA_API_KEY")
}

func TestLoadConfig_InvalidAPIKey(t *testing.T) {
	t.Setenv("DAYTONA_API_KEY", "has a space")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "DAYTONA_API_KEY")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DAYTONA_API_KEY", "test-key-123")
	t.Setenv("DAYTONA_API_URL", "")
	t.Setenv("DAYTONA_TARGET", "")
	t.Setenv("DAYTONA_AUTO_STOP_INTERVAL", "")

	cfg, err := LoadConfig("")
	assert.NilError(t, err)
	assert.Equal(t, cfg.APIKey, "test-key-123")
	assert.Equal(t, cfg.Target, "us")
	assert.Equal(t, cfg.AutoStopInterval, 30)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DAYTONA_API_KEY", "test-key-123")
	t.Setenv("DAYTONA_TARGET", "eu")
	t.Setenv("DAYTONA_AUTO_STOP_INTERVAL", "15")

	cfg, err := LoadConfig("")
	assert.NilError(t, err)
	assert.Equal(t, cfg.Target, "eu")
	assert.Equal(t, cfg.AutoStopInterval, 15)
}

func TestLoadConfig_TomlOverlayBeatsDefaultsButNotEnv(t *testing.T) {
	t.Setenv("DAYTONA_API_KEY", "test-key-123")

	path := filepath.Join(t.TempDir(), "sandbox.toml")
	err := os.WriteFile(path, []byte("bootstrap_dirs = [\"lib\", \"bin\"]\nsession_timeout_seconds = 120\n"), 0o644)
	assert.NilError(t, err)

	cfg, err := LoadConfig(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, cfg.BootstrapDirs, []string{"lib", "bin"})
	assert.Equal(t, cfg.SessionTimeoutS, 120)
	assert.Equal(t, cfg.APIKey, "test-key-123")
}

func TestLoadConfig_InvalidAutoStopInterval(t *testing.T) {
	t.Setenv("DAYTONA_API_KEY", "test-key-123")
	t.Setenv("DAYTONA_AUTO_STOP_INTERVAL", "not-a-number")

	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "DAYTONA_AUTO_STOP_INTERVAL")
}

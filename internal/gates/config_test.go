package gates

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_OverridesAndDefaults(t *testing.T) {
	path := writeConfigFile(t, `
max_quote_age: 30s
min_volume: 250000
min_confidence: 0.5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// Overridden fields.
	assert.Equal(t, 30*time.Second, cfg.MaxQuoteAge)
	assert.Equal(t, int64(250_000), cfg.MinVolume)
	assert.Equal(t, 0.5, cfg.MinConfidence)

	// Everything left unset falls back to the production defaults.
	defaults := DefaultConfig()
	assert.Equal(t, defaults.MaxEntryDeviation, cfg.MaxEntryDeviation)
	assert.Equal(t, defaults.MaxVIX, cfg.MaxVIX)
	assert.Equal(t, defaults.MinRRIntraday, cfg.MinRRIntraday)
	assert.Equal(t, defaults.MinRRSwing, cfg.MinRRSwing)
	assert.Equal(t, defaults.MaxExposure, cfg.MaxExposure)
	assert.Equal(t, defaults.MinBuyRatio, cfg.MinBuyRatio)
	assert.Equal(t, defaults.MaxBuyRatio, cfg.MaxBuyRatio)
}

func TestLoadConfig_EmptyFileEqualsDefaults(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := writeConfigFile(t, "max_vix: [not a number")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

package gates

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains the hard thresholds for the nine admission gates.
type Config struct {
	// Gate 1: quote freshness
	MaxQuoteAge time.Duration `yaml:"max_quote_age"` // 60s

	// Gate 2: price deviation
	MaxEntryDeviation float64 `yaml:"max_entry_deviation"` // 0.03 vs proposed entry
	MaxCloseDeviation float64 `yaml:"max_close_deviation"` // 0.30 vs previous close

	// Gate 3: liquidity
	MinVolume int64 `yaml:"min_volume"` // 100k shares daily

	// Gate 4: volatility regime
	MaxVIX float64 `yaml:"max_vix"` // 40

	// Gate 6: risk/reward floor by timeframe
	MinRRIntraday float64 `yaml:"min_rr_intraday"` // 1.5 for "day"
	MinRRSwing    float64 `yaml:"min_rr_swing"`    // 2.0 otherwise

	// Gate 7: portfolio exposure cap (fraction of portfolio)
	MaxExposure float64 `yaml:"max_exposure"` // 0.50

	// Gate 8: order-flow pressure bands
	MinBuyRatio float64 `yaml:"min_buy_ratio"` // BUY fails below 0.45
	MaxBuyRatio float64 `yaml:"max_buy_ratio"` // SELL fails above 0.55

	// Gate 9: confidence floor
	MinConfidence float64 `yaml:"min_confidence"` // 0.30
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() *Config {
	return &Config{
		MaxQuoteAge:       60 * time.Second,
		MaxEntryDeviation: 0.03,
		MaxCloseDeviation: 0.30,
		MinVolume:         100_000,
		MaxVIX:            40.0,
		MinRRIntraday:     1.5,
		MinRRSwing:        2.0,
		MaxExposure:       0.50,
		MinBuyRatio:       0.45,
		MaxBuyRatio:       0.55,
		MinConfidence:     0.30,
	}
}

// LoadConfig reads gate thresholds from a YAML file, filling any field left at
// its zero value from the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gate config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse gate config %s: %w", path, err)
	}

	defaults := DefaultConfig()
	if cfg.MaxQuoteAge == 0 {
		cfg.MaxQuoteAge = defaults.MaxQuoteAge
	}
	if cfg.MaxEntryDeviation == 0 {
		cfg.MaxEntryDeviation = defaults.MaxEntryDeviation
	}
	if cfg.MaxCloseDeviation == 0 {
		cfg.MaxCloseDeviation = defaults.MaxCloseDeviation
	}
	if cfg.MinVolume == 0 {
		cfg.MinVolume = defaults.MinVolume
	}
	if cfg.MaxVIX == 0 {
		cfg.MaxVIX = defaults.MaxVIX
	}
	if cfg.MinRRIntraday == 0 {
		cfg.MinRRIntraday = defaults.MinRRIntraday
	}
	if cfg.MinRRSwing == 0 {
		cfg.MinRRSwing = defaults.MinRRSwing
	}
	if cfg.MaxExposure == 0 {
		cfg.MaxExposure = defaults.MaxExposure
	}
	if cfg.MinBuyRatio == 0 {
		cfg.MinBuyRatio = defaults.MinBuyRatio
	}
	if cfg.MaxBuyRatio == 0 {
		cfg.MaxBuyRatio = defaults.MaxBuyRatio
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = defaults.MinConfidence
	}
	return cfg, nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
env: paper
exchange: binance_paper_trade
tradingPair: ETH-USDT
strategy:
  bidSpread: 0.001
  askSpread: 0.001
  refreshIntervalSeconds: 15
  baseOrderAmount: 0.5
  minSpread: 0.0005
  maxSpread: 0.002
  riskFraction: 0.25
candles:
  exchange: binance
  symbol: ETHUSDT
  interval: 1m
  windowLength: 30
paper:
  initialBalances:
    ETH: 10
    USDT: 10000
metrics:
  addr: ":9091"
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "ETH-USDT", cfg.Pair)
	assert.Equal(t, "ETH", cfg.BaseAsset())
	assert.Equal(t, "USDT", cfg.QuoteAsset())
	assert.Equal(t, 15*time.Second, cfg.Strategy.RefreshInterval())
	assert.Equal(t, "ETHUSDT", cfg.Candles.Symbol)
	assert.Equal(t, 30, cfg.Candles.WindowLength)
	assert.Equal(t, float64(10000), cfg.Paper.InitialBalances["USDT"])
	assert.Equal(t, ":9091", cfg.Metrics.Addr)
}

func TestLoadDefaults(t *testing.T) {
	body := `
env: paper
exchange: binance_paper_trade
tradingPair: BTC-USDT
strategy:
  refreshIntervalSeconds: 10
  baseOrderAmount: 0.01
  minSpread: 0.001
  maxSpread: 0.01
  riskFraction: 0.5
candles:
  symbol: BTCUSDT
`
	cfg, err := Load(writeTempConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, "1m", cfg.Candles.Interval)
	assert.Equal(t, 30, cfg.Candles.WindowLength)
	assert.NotEmpty(t, cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	base := func() AppConfig {
		cfg, err := Load(writeTempConfig(t, sampleYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"missing env", func(c *AppConfig) { c.Env = "" }},
		{"missing exchange", func(c *AppConfig) { c.Exchange = "" }},
		{"bad pair", func(c *AppConfig) { c.Pair = "ETHUSDT" }},
		{"zero refresh interval", func(c *AppConfig) { c.Strategy.RefreshIntervalSeconds = 0 }},
		{"zero base amount", func(c *AppConfig) { c.Strategy.BaseOrderAmount = 0 }},
		{"zero min spread", func(c *AppConfig) { c.Strategy.MinSpread = 0 }},
		{"inverted spread range", func(c *AppConfig) { c.Strategy.MinSpread = 0.01; c.Strategy.MaxSpread = 0.001 }},
		{"risk fraction too high", func(c *AppConfig) { c.Strategy.RiskFraction = 1.5 }},
		{"negative bid spread", func(c *AppConfig) { c.Strategy.BidSpread = -0.001 }},
		{"missing candle symbol", func(c *AppConfig) { c.Candles.Symbol = "" }},
		{"negative seed balance", func(c *AppConfig) { c.Paper.InitialBalances["ETH"] = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("PMM_TRADING_PAIR", "BNB-USDT")
	t.Setenv("PMM_METRICS_ADDR", ":9100")

	cfg, err := LoadWithEnvOverrides(writeTempConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "BNB-USDT", cfg.Pair)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadWithEnvOverridesInvalidPair(t *testing.T) {
	t.Setenv("PMM_TRADING_PAIR", "not-a-pair-at-all")
	_, err := LoadWithEnvOverrides(writeTempConfig(t, sampleYAML))
	assert.Error(t, err)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"pmm-quoter-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string         `yaml:"env"`
	Exchange string         `yaml:"exchange"`    // venue identifier, e.g. binance_paper_trade
	Pair     string         `yaml:"tradingPair"` // BASE-QUOTE, e.g. ETH-USDT
	Strategy StrategyConfig `yaml:"strategy"`
	Candles  CandlesConfig  `yaml:"candles"`
	Paper    PaperConfig    `yaml:"paper"`
	Logging  logger.Config  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// StrategyConfig 报价参数。bidSpread/askSpread 仅用于初始展示，
// 实际 spread 由波动率估计动态决定。
type StrategyConfig struct {
	BidSpread              float64 `yaml:"bidSpread"`
	AskSpread              float64 `yaml:"askSpread"`
	RefreshIntervalSeconds int     `yaml:"refreshIntervalSeconds"`
	BaseOrderAmount        float64 `yaml:"baseOrderAmount"`
	MinSpread              float64 `yaml:"minSpread"`
	MaxSpread              float64 `yaml:"maxSpread"`
	RiskFraction           float64 `yaml:"riskFraction"`
}

// CandlesConfig K 线行情源配置
type CandlesConfig struct {
	Exchange     string `yaml:"exchange"`     // 行情来源（可与交易 venue 不同）
	Symbol       string `yaml:"symbol"`       // 交易所格式，如 ETHUSDT
	Interval     string `yaml:"interval"`     // 如 1m
	WindowLength int    `yaml:"windowLength"` // 窗口长度，就绪门槛
}

// PaperConfig seeds the paper venue.
type PaperConfig struct {
	InitialBalances map[string]float64 `yaml:"initialBalances"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // 留空则关闭
}

// RefreshInterval returns the refresh cadence as a duration.
func (s StrategyConfig) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSeconds) * time.Second
}

// BaseAsset returns the pair's base asset.
func (c AppConfig) BaseAsset() string { return strings.Split(c.Pair, "-")[0] }

// QuoteAsset returns the pair's quote asset.
func (c AppConfig) QuoteAsset() string {
	parts := strings.Split(c.Pair, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Decimal converts a config float once at load time.
func Decimal(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// Load reads YAML config from path and applies validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides select fields from env.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("PMM_TRADING_PAIR"); v != "" {
		cfg.Pair = v
	}
	if v := os.Getenv("PMM_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging = logger.DefaultConfig()
	}
	if cfg.Candles.Interval == "" {
		cfg.Candles.Interval = "1m"
	}
	if cfg.Candles.WindowLength <= 0 {
		cfg.Candles.WindowLength = 30
	}
}

// Validate rejects configuration errors at startup, never per cycle.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Exchange == "" {
		return errors.New("exchange is required")
	}
	parts := strings.Split(cfg.Pair, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("tradingPair %q must be BASE-QUOTE", cfg.Pair)
	}
	s := cfg.Strategy
	if s.RefreshIntervalSeconds <= 0 {
		return errors.New("strategy.refreshIntervalSeconds must be > 0")
	}
	if s.BaseOrderAmount <= 0 {
		return errors.New("strategy.baseOrderAmount must be > 0")
	}
	if s.MinSpread <= 0 || s.MaxSpread <= 0 {
		return errors.New("strategy.minSpread/maxSpread must be > 0")
	}
	if s.MinSpread > s.MaxSpread {
		return fmt.Errorf("strategy.minSpread %v > maxSpread %v", s.MinSpread, s.MaxSpread)
	}
	if s.RiskFraction <= 0 || s.RiskFraction > 1 {
		return errors.New("strategy.riskFraction must be in (0, 1]")
	}
	if s.BidSpread < 0 || s.AskSpread < 0 {
		return errors.New("strategy.bidSpread/askSpread must be >= 0")
	}
	if cfg.Candles.Symbol == "" {
		return errors.New("candles.symbol is required")
	}
	for asset, amount := range cfg.Paper.InitialBalances {
		if amount < 0 {
			return fmt.Errorf("paper.initialBalances[%s] must be >= 0", asset)
		}
	}
	return nil
}

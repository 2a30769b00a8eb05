package analytics

import (
	"fmt"

	"crowd-pulse-lab/internal/composite"
	"crowd-pulse-lab/internal/engagement"
	"crowd-pulse-lab/internal/holders"
	"crowd-pulse-lab/internal/indicators"
	"crowd-pulse-lab/internal/momentum"
)

// RSIConfig parameterises the RSI series.
type RSIConfig struct {
	Period int               `yaml:"period"`
	Method indicators.Method `yaml:"method"`
}

// MACDConfig parameterises the MACD series.
type MACDConfig struct {
	Fast   int `yaml:"fast"`
	Slow   int `yaml:"slow"`
	Signal int `yaml:"signal"`
}

// StochRSIConfig parameterises the Stochastic RSI series.
type StochRSIConfig struct {
	RSIPeriod   int `yaml:"rsi_period"`
	StochPeriod int `yaml:"stoch_period"`
	SmoothK     int `yaml:"smooth_k"`
	SmoothD     int `yaml:"smooth_d"`
}

// Config aggregates every engine parameter.
type Config struct {
	IntervalMinutes int                   `yaml:"interval_minutes"`
	EMAPeriod       int                   `yaml:"ema_period"`
	Engagement      engagement.Config     `yaml:"engagement"`
	Momentum        momentum.Config       `yaml:"momentum"`
	RSI             RSIConfig             `yaml:"rsi"`
	MACD            MACDConfig            `yaml:"macd"`
	StochRSI        StochRSIConfig        `yaml:"stoch_rsi"`
	Hype            composite.HypeWeights `yaml:"hype"`
	Holders         holders.Config        `yaml:"holders"`
}

// DefaultConfig returns the default engine parameters.
func DefaultConfig() Config {
	return Config{
		IntervalMinutes: 5,
		EMAPeriod:       15,
		Engagement:      engagement.DefaultConfig(),
		Momentum:        momentum.DefaultConfig(),
		RSI:             RSIConfig{Period: 14, Method: indicators.MethodWilder},
		MACD:            MACDConfig{Fast: 12, Slow: 26, Signal: 9},
		StochRSI:        StochRSIConfig{RSIPeriod: 14, StochPeriod: 14, SmoothK: 3, SmoothD: 3},
		Hype:            composite.DefaultHypeWeights(),
		Holders:         holders.DefaultConfig(),
	}
}

// Validate rejects parameters the engine cannot run with.
func (c Config) Validate() error {
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be positive, got %d", c.IntervalMinutes)
	}
	if c.Holders.IntervalMinutes <= 0 {
		return fmt.Errorf("holders.interval_minutes must be positive, got %d", c.Holders.IntervalMinutes)
	}
	if c.EMAPeriod < 1 || c.Momentum.Tau < 1 || c.RSI.Period < 1 {
		return fmt.Errorf("ema_period, momentum.tau and rsi.period must be >= 1")
	}
	if c.MACD.Fast < 1 || c.MACD.Slow < 1 || c.MACD.Signal < 1 {
		return fmt.Errorf("macd periods must be >= 1")
	}
	if c.StochRSI.RSIPeriod < 1 || c.StochRSI.StochPeriod < 1 {
		return fmt.Errorf("stoch_rsi periods must be >= 1")
	}
	if _, err := indicators.ParseMethod(string(c.RSI.Method)); err != nil {
		return err
	}
	if c.Holders.SellWindow < 1 {
		return fmt.Errorf("holders.sell_window must be >= 1, got %d", c.Holders.SellWindow)
	}
	return nil
}

// Fingerprint identifies the parameter set, for cache keys.
func (c Config) Fingerprint() string {
	return fmt.Sprintf("%+v", c)
}

// Package holders scores sell-off risk from token holder balance snapshots.
package holders

import (
	"crowd-pulse-lab/internal/domain"
)

// Weights combine the three risk components into a score.
type Weights struct {
	Concentration float64 `yaml:"concentration"`
	Coordinated   float64 `yaml:"coordinated"`
	Liquidity     float64 `yaml:"liquidity"`
}

// Config parameterises the holder risk engine.
type Config struct {
	IntervalMinutes      int     `yaml:"interval_minutes"`
	WhaleThreshold       float64 `yaml:"whale_threshold"`       // peak balance at or above which an address is a whale
	DropThreshold        float64 `yaml:"drop_threshold"`        // fractional drop counted as a sell
	SellWindow           int     `yaml:"sell_window"`           // buckets back the drop is measured against
	CoordinatedThreshold float64 `yaml:"coordinated_threshold"` // ratio at which the coordinated sell flag is raised
	Weights              Weights `yaml:"weights"`
	DetectPoolAddresses  bool    `yaml:"detect_pool_addresses"` // treat off-curve addresses as lp
}

// DefaultConfig returns the default holder risk parameters.
func DefaultConfig() Config {
	return Config{
		IntervalMinutes:      60,
		WhaleThreshold:       10_000_000,
		DropThreshold:        0.05,
		SellWindow:           1,
		CoordinatedThreshold: 0.3,
		Weights: Weights{
			Concentration: 0.2,
			Coordinated:   0.2,
			Liquidity:     0.6,
		},
	}
}

// Classify assigns every address a class from its peak balance.
// Addresses in lp are always lp; otherwise peak >= WhaleThreshold is whale.
func Classify(snapshots []domain.HolderSnapshot, lp map[string]bool, cfg Config) map[string]domain.HolderClass {
	peak := make(map[string]float64)
	for _, s := range snapshots {
		if cur, ok := peak[s.Address]; !ok || s.Amount > cur {
			peak[s.Address] = s.Amount
		}
	}

	classes := make(map[string]domain.HolderClass, len(peak))
	for addr, p := range peak {
		switch {
		case lp[addr]:
			classes[addr] = domain.HolderClassLP
		case p >= cfg.WhaleThreshold:
			classes[addr] = domain.HolderClassWhale
		default:
			classes[addr] = domain.HolderClassRetail
		}
	}
	return classes
}

// PoolSet merges the designated lp addresses with, when enabled, every
// off-curve address seen in snapshots.
func PoolSet(snapshots []domain.HolderSnapshot, designated []string, cfg Config) map[string]bool {
	lp := make(map[string]bool, len(designated))
	for _, a := range designated {
		lp[a] = true
	}
	if !cfg.DetectPoolAddresses {
		return lp
	}
	for _, s := range snapshots {
		if !lp[s.Address] && IsOffCurve(s.Address) {
			lp[s.Address] = true
		}
	}
	return lp
}

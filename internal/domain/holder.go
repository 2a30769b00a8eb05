package domain

// HolderSnapshot is one observed token balance for an address.
// Corresponds to holder_snapshots table in PostgreSQL.
type HolderSnapshot struct {
	Asset       string  // token / asset identifier
	Address     string  // holder wallet address
	Amount      float64 // token balance in whole units
	TimestampMs int64   // Unix timestamp in milliseconds
}

// HolderClass partitions holder addresses for risk analysis.
type HolderClass string

// Holder class constants
const (
	HolderClassWhale  HolderClass = "whale"
	HolderClassRetail HolderClass = "retail"
	HolderClassLP     HolderClass = "lp"
)

// String returns the string representation of the class.
func (c HolderClass) String() string {
	return string(c)
}

// RiskPoint is one entry of the sell-off risk series.
type RiskPoint struct {
	TimestampMs          int64   `json:"t"`
	Entropy              float64 `json:"entropy"`                // normalized concentration risk, 0 even .. 1 concentrated
	CoordinatedSellRatio float64 `json:"coordinated_sell_ratio"` // share of holders down >= drop threshold
	CoordinatedSellFlag  bool    `json:"coordinated_sell_flag"`
	LiquidityRisk        float64 `json:"liquidity_risk"` // whale holdings / liquidity, capped at 1
	Score                float64 `json:"score"`
	HolderCount          int     `json:"holder_count"` // non-lp holders with a positive balance
	WhaleBalance         float64 `json:"whale_balance"`
	Liquidity            float64 `json:"liquidity"`
}

// ClassBalancePoint aggregates balances per holder class for one bucket.
type ClassBalancePoint struct {
	TimestampMs int64   `json:"t"`
	Whale       float64 `json:"whale"`
	Retail      float64 `json:"retail"`
	LP          float64 `json:"lp"`
}

// LiquidityPoint is available pool liquidity at a point in time.
// Corresponds to liquidity_timeseries table in ClickHouse.
type LiquidityPoint struct {
	Asset       string  // token / asset identifier
	TimestampMs int64   // Unix timestamp in milliseconds
	Liquidity   float64 // available liquidity in quote units
}

// PoolAddress designates a liquidity-pool holder address for an asset.
// Corresponds to liquidity_pools table in PostgreSQL.
type PoolAddress struct {
	Asset   string
	Address string
	Label   string // optional DEX / pool name
}

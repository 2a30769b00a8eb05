package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ComputeReportKey computes a deterministic cache key for an analytics report.
// Formula: SHA256(asset|interval_minutes|params)
// Asset is trimmed and lower-cased so "TKN" and " tkn " share an entry.
// Returns hex-encoded hash (64 characters).
func ComputeReportKey(asset string, intervalMinutes int, params string) string {
	data := fmt.Sprintf("%s|%d|%s",
		strings.ToLower(strings.TrimSpace(asset)),
		intervalMinutes,
		params,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

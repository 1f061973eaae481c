package domain

import (
	"strconv"
	"time"
)

// ScopeLine is one scope's contribution, rendered with exactly one decimal.
type ScopeLine struct {
	Scope int    `json:"scope"`
	TCO2e string `json:"tco2e"`
}

// PeriodReport is the outward shape of a period computation. Values are
// rendered as strings so 303.6 never becomes 303.60 or 303.6000000000001 on
// the wire.
type PeriodReport struct {
	OrgID       string      `json:"organization_id"`
	PeriodStart time.Time   `json:"period_start"`
	PeriodEnd   time.Time   `json:"period_end"`
	Scopes      []ScopeLine `json:"scopes"`
	TotalTCO2e  string      `json:"total_tco2e"`
	CoveragePct string      `json:"coverage_pct"`
	Warnings    int         `json:"warnings"`
	// ComputedAt is when the underlying computation ran; cached reads carry
	// the original timestamp, not the read time.
	ComputedAt time.Time `json:"computed_at"`
}

// BaselineReport is the outward shape of a baseline snapshot.
type BaselineReport struct {
	OrgID        string      `json:"organization_id"`
	TargetID     string      `json:"target_id"`
	BaselineYear int         `json:"baseline_year"`
	Scopes       []ScopeLine `json:"scopes"`
	TotalTCO2e   string      `json:"total_tco2e"`
	CoveragePct  string      `json:"coverage_pct"`
	Warnings     int         `json:"warnings"`
	IsStale      bool        `json:"is_stale"`
	Version      int64       `json:"version"`
	ComputedAt   time.Time   `json:"computed_at"`
}

// FormatTonnes renders a tonne value with exactly one decimal place.
func FormatTonnes(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

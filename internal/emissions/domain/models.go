package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ScopeTotal is one scope's contribution in tonnes, already rounded.
type ScopeTotal struct {
	Scope       int     `json:"scope"`
	ValueTCO2e  float64 `json:"value_tco2e"`
	ValueKgCO2e float64 `json:"-"`
}

// PeriodEmissions is the scope-decomposed answer for one organization and
// period. It is a pure function of the metric record set as of query time;
// callers stamp their own timestamps so repeated computations stay
// byte-identical.
type PeriodEmissions struct {
	OrgID       snowflake.ID  `json:"organization_id"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	ScopeTotals [3]ScopeTotal `json:"scope_totals"`
	TotalTCO2e  float64       `json:"total_tco2e"`

	// Warnings counts rows excluded because the catalog could not resolve
	// their metric. Never fatal.
	Warnings int `json:"warnings"`

	TotalRows    int `json:"total_rows"`
	ResolvedRows int `json:"resolved_rows"`
}

// Scope returns the rounded tonnes for scope 1, 2 or 3.
func (p *PeriodEmissions) Scope(scope int) float64 {
	if scope < 1 || scope > 3 {
		return 0
	}
	return p.ScopeTotals[scope-1].ValueTCO2e
}

// CoveragePct is the share of rows that resolved, rounded to 1 decimal.
// An empty record set covers everything it was asked for: 100.0.
func (p *PeriodEmissions) CoveragePct() float64 {
	if p.TotalRows == 0 {
		return 100.0
	}
	return RoundHalfUp1(float64(p.ResolvedRows) / float64(p.TotalRows) * 100)
}

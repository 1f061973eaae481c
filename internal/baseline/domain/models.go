package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// BaselineSnapshot is the persisted result of a baseline-year computation
// for one organization and reduction target. Writes are guarded by an
// optimistic version check; any overlapping writer loses and retries.
type BaselineSnapshot struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID        snowflake.ID `json:"organization_id" gorm:"column:org_id;not null;uniqueIndex:ux_baseline_snapshots_org_target,priority:1"`
	TargetID     string       `json:"target_id" gorm:"type:text;not null;uniqueIndex:ux_baseline_snapshots_org_target,priority:2"`
	BaselineYear int          `json:"baseline_year" gorm:"not null;index:ix_baseline_snapshots_year"`
	Scope1TCO2e  float64      `json:"scope1_tco2e" gorm:"column:scope1_tco2e;not null"`
	Scope2TCO2e  float64      `json:"scope2_tco2e" gorm:"column:scope2_tco2e;not null"`
	Scope3TCO2e  float64      `json:"scope3_tco2e" gorm:"column:scope3_tco2e;not null"`
	TotalTCO2e   float64      `json:"total_tco2e" gorm:"column:total_tco2e;not null"`
	CoveragePct  float64      `json:"coverage_pct" gorm:"not null;default:0"`
	Warnings     int          `json:"warnings" gorm:"not null;default:0"`
	Stale        bool         `json:"stale" gorm:"not null;default:false"`
	Version      int64        `json:"version" gorm:"not null;default:1"`
	ComputedAt   time.Time    `json:"computed_at" gorm:"not null"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BaselineSnapshot) TableName() string { return "baseline_snapshots" }

var (
	// ErrConcurrentUpdate signals that the optimistic version check failed
	// after the retry budget was exhausted.
	ErrConcurrentUpdate = errors.New("concurrent_update")

	ErrSnapshotNotFound = errors.New("baseline_snapshot_not_found")
	ErrInvalidTarget    = errors.New("invalid_target")
)

package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// MetricRecord is one validated greenhouse-gas measurement, append-only and
// owned by the upstream ingestion pipeline.
type MetricRecord struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID      `json:"organization_id" gorm:"column:org_id;not null;index:ix_metric_records_org_period,priority:1"`
	MetricID    string            `json:"metric_id" gorm:"type:text;not null"`
	Scope       int               `json:"scope" gorm:"not null"`
	PeriodStart time.Time         `json:"period_start" gorm:"not null;index:ix_metric_records_org_period,priority:2"`
	PeriodEnd   time.Time         `json:"period_end" gorm:"not null"`
	ValueKgCO2e float64           `json:"value_kgco2e" gorm:"column:value_kgco2e;not null"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (MetricRecord) TableName() string { return "metric_records" }

var (
	// ErrDataUnavailable signals the record store was unreachable or timed
	// out. Never retried here; retry policy belongs to the caller.
	ErrDataUnavailable = errors.New("data_unavailable")

	ErrInvalidPeriod = errors.New("invalid_period")
)

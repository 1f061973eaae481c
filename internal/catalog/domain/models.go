package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CatalogEntry maps a metric identifier to its GHG accounting scope,
// category and unit.
type CatalogEntry struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	MetricID  string       `json:"metric_id" gorm:"type:text;not null;uniqueIndex:ux_metric_catalog_metric_id"`
	Scope     int          `json:"scope" gorm:"not null"`
	Category  string       `json:"category" gorm:"type:text;not null"`
	Unit      string       `json:"unit" gorm:"type:text;not null;default:kgCO2e"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CatalogEntry) TableName() string { return "metric_catalog" }

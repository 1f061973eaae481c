package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/carbonledger/internal/catalog/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) ListActive(ctx context.Context, db *gorm.DB) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("metric_id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) Upsert(ctx context.Context, db *gorm.DB, entry *domain.CatalogEntry) error {
	entry.MetricID = strings.TrimSpace(entry.MetricID)
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "metric_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"scope", "category", "unit", "active", "updated_at",
		}),
	}).Create(entry).Error
}

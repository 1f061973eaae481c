package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carbonledger/internal/baseline/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) FindByOrgTarget(ctx context.Context, db *gorm.DB, orgID snowflake.ID, targetID string) (*domain.BaselineSnapshot, error) {
	var snapshot domain.BaselineSnapshot
	err := db.WithContext(ctx).
		Where("org_id = ? AND target_id = ?", orgID, strings.TrimSpace(targetID)).
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, snapshot *domain.BaselineSnapshot) error {
	return db.WithContext(ctx).Create(snapshot).Error
}

func (r *repository) UpdateVersioned(ctx context.Context, db *gorm.DB, snapshot *domain.BaselineSnapshot, expectedVersion int64) error {
	result := db.WithContext(ctx).
		Model(&domain.BaselineSnapshot{}).
		Where("id = ? AND version = ?", snapshot.ID, expectedVersion).
		Updates(map[string]any{
			"baseline_year": snapshot.BaselineYear,
			"scope1_tco2e":  snapshot.Scope1TCO2e,
			"scope2_tco2e":  snapshot.Scope2TCO2e,
			"scope3_tco2e":  snapshot.Scope3TCO2e,
			"total_tco2e":   snapshot.TotalTCO2e,
			"coverage_pct":  snapshot.CoveragePct,
			"warnings":      snapshot.Warnings,
			"stale":         snapshot.Stale,
			"version":       snapshot.Version,
			"computed_at":   snapshot.ComputedAt,
			"updated_at":    snapshot.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func (r *repository) MarkStaleYear(ctx context.Context, db *gorm.DB, orgID snowflake.ID, year int, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.BaselineSnapshot{}).
		Where("org_id = ? AND baseline_year = ?", orgID, year).
		Updates(map[string]any{
			"stale":      true,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	ListActive(ctx context.Context, db *gorm.DB) ([]CatalogEntry, error)
	Upsert(ctx context.Context, db *gorm.DB, entry *CatalogEntry) error
}

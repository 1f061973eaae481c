package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByOrgTarget(ctx context.Context, db *gorm.DB, orgID snowflake.ID, targetID string) (*BaselineSnapshot, error)
	Insert(ctx context.Context, db *gorm.DB, snapshot *BaselineSnapshot) error
	// UpdateVersioned persists snapshot only if the stored row still carries
	// expectedVersion. Returns ErrConcurrentUpdate when the row moved on.
	UpdateVersioned(ctx context.Context, db *gorm.DB, snapshot *BaselineSnapshot, expectedVersion int64) error
	// MarkStaleYear flags every snapshot whose baseline year matches and bumps
	// its version so in-flight writers lose their version check. The stamp
	// comes from the caller's clock, never the system clock. Returns the
	// number of rows flagged.
	MarkStaleYear(ctx context.Context, db *gorm.DB, orgID snowflake.ID, year int, now time.Time) (int64, error)
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// GetRequest asks for the baseline snapshot of one organization/target pair.
type GetRequest struct {
	OrgID    snowflake.ID
	TargetID string
	// ReportingYear is supplied by the caller; the engine never consults the
	// system clock to derive it.
	ReportingYear int
	// ExplicitYear overrides the derived baseline year when set.
	ExplicitYear *int
	// Refresh forces a recompute even when a fresh snapshot exists.
	Refresh  bool
	Location *time.Location
}

// RecomputeRequest drives an explicit baseline recomputation.
type RecomputeRequest struct {
	OrgID         snowflake.ID
	TargetID      string
	ReportingYear int
	ExplicitYear  *int
	Location      *time.Location
}

// Manager owns baseline snapshot lifecycle: lazy first computation,
// stale-but-served reads, and explicit recomputes with optimistic
// concurrency.
type Manager interface {
	// Get returns the snapshot, computing it on first access. A stale
	// snapshot is returned as-is (Stale=true) unless Refresh is set.
	Get(ctx context.Context, req GetRequest) (*BaselineSnapshot, error)
	// Recompute rebuilds the snapshot from raw records and persists it with
	// a version-checked write. Exhausting the write retry budget yields
	// ErrConcurrentUpdate.
	Recompute(ctx context.Context, req RecomputeRequest) (*BaselineSnapshot, error)
	// MarkStale flags every snapshot whose baseline year matches, typically
	// after a backfill into that year. Returns the number flagged.
	MarkStale(ctx context.Context, orgID snowflake.ID, year int) (int64, error)
}

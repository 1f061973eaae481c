package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Store fetches metric records for an organization within [start, end).
// Implementations bound every call with a timeout and surface
// ErrDataUnavailable on connectivity failure.
type Store interface {
	FetchRecords(ctx context.Context, orgID snowflake.ID, start, end time.Time) ([]MetricRecord, error)
}

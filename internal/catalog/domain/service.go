package domain

import (
	"context"
	"errors"
)

// Resolution is the resolver answer for a single metric identifier.
type Resolution struct {
	MetricID string `json:"metric_id"`
	Scope    int    `json:"scope"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

// Resolver answers metric lookups from an in-memory snapshot of the catalog.
// Resolve never touches the database; Reload swaps the snapshot so dependents
// keep running during catalog updates.
type Resolver interface {
	Resolve(metricID string) (Resolution, error)
	Reload(ctx context.Context) error
	Size() int
}

var (
	ErrUnknownMetric   = errors.New("unknown_metric")
	ErrInvalidMetricID = errors.New("invalid_metric_id")
	ErrInvalidScope    = errors.New("invalid_scope")
)

// ValidScope reports whether the value is a GHG Protocol scope.
func ValidScope(scope int) bool {
	return scope >= 1 && scope <= 3
}

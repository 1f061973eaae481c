package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Engine computes scope-decomposed emission totals. All operations are
// read-only and safe to call concurrently; the engine never consults a
// system clock, so identical record sets yield identical answers.
type Engine interface {
	ComputePeriod(ctx context.Context, orgID snowflake.ID, start, end time.Time) (*PeriodEmissions, error)
	ComputeYear(ctx context.Context, orgID snowflake.ID, year int, loc *time.Location) (*PeriodEmissions, error)
	ComputeBaselineYear(ctx context.Context, req BaselineYearRequest) (*PeriodEmissions, int, error)
}

// BaselineYearRequest resolves which calendar year a baseline covers. The
// reporting year is injected by the caller; when no explicit year is given
// the baseline defaults to ReportingYear - OffsetYears.
type BaselineYearRequest struct {
	OrgID         snowflake.ID
	ExplicitYear  *int
	ReportingYear int
	OffsetYears   int
	Location      *time.Location
}

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidYear          = errors.New("invalid_year")
	ErrInvalidReportingYear = errors.New("invalid_reporting_year")
)

// YearBounds returns [Jan 1 year, Jan 1 year+1) in the reporting timezone.
func YearBounds(year int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}

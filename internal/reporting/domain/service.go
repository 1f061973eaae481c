package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	baselinedomain "github.com/smallbiznis/carbonledger/internal/baseline/domain"
)

// Reporter is the read surface: cached period answers and baseline
// snapshots, every tonne value rendered with one decimal.
type Reporter interface {
	GetPeriodEmissions(ctx context.Context, orgID snowflake.ID, start, end time.Time) (*PeriodReport, error)
	GetYearEmissions(ctx context.Context, orgID snowflake.ID, year int, loc *time.Location) (*PeriodReport, error)
	GetBaselineEmissions(ctx context.Context, req baselinedomain.GetRequest) (*BaselineReport, error)
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/carbonledger/internal/catalog/domain"
	emissionsdomain "github.com/smallbiznis/carbonledger/internal/emissions/domain"
	metricstoredomain "github.com/smallbiznis/carbonledger/internal/metricstore/domain"
	obsmetrics "github.com/smallbiznis/carbonledger/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Store    metricstoredomain.Store
	Resolver catalogdomain.Resolver
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	store    metricstoredomain.Store
	resolver catalogdomain.Resolver
	metrics  *obsmetrics.Metrics
}

func NewService(p ServiceParam) emissionsdomain.Engine {
	return &Service{
		log:      p.Log.Named("emissions.service"),
		store:    p.Store,
		resolver: p.Resolver,
		metrics:  p.Metrics,
	}
}

// ComputePeriod sums raw kgCO2e per scope for [start, end), converts to
// tonnes, rounds each scope to 1 decimal, then rounds the sum of the rounded
// scopes. Rows whose metric the catalog cannot resolve are excluded and
// counted in Warnings. An empty record set is a valid zero answer.
func (s *Service) ComputePeriod(ctx context.Context, orgID snowflake.ID, start, end time.Time) (*emissionsdomain.PeriodEmissions, error) {
	if orgID == 0 {
		return nil, emissionsdomain.ErrInvalidOrganization
	}

	computeStart := time.Now()
	records, err := s.store.FetchRecords(ctx, orgID, start, end)
	if err != nil {
		return nil, err
	}

	var kgByScope [3]float64
	warnings := 0
	resolved := 0
	for _, record := range records {
		resolution, err := s.resolver.Resolve(record.MetricID)
		if err != nil {
			if errors.Is(err, catalogdomain.ErrUnknownMetric) || errors.Is(err, catalogdomain.ErrInvalidMetricID) {
				warnings++
				continue
			}
			return nil, err
		}
		// The catalog is the scope authority; a disagreeing persisted scope
		// is followed, not coerced, and not a warning.
		if record.Scope != resolution.Scope {
			s.log.Debug("record scope overridden by catalog",
				zap.String("metric_id", record.MetricID),
				zap.Int("record_scope", record.Scope),
				zap.Int("catalog_scope", resolution.Scope),
			)
		}
		kgByScope[resolution.Scope-1] += record.ValueKgCO2e
		resolved++
	}

	result := &emissionsdomain.PeriodEmissions{
		OrgID:        orgID,
		PeriodStart:  start,
		PeriodEnd:    end,
		Warnings:     warnings,
		TotalRows:    len(records),
		ResolvedRows: resolved,
	}

	roundedSum := 0.0
	for i, kg := range kgByScope {
		rounded := emissionsdomain.RoundHalfUp1(emissionsdomain.KgToTonnes(kg))
		result.ScopeTotals[i] = emissionsdomain.ScopeTotal{
			Scope:       i + 1,
			ValueTCO2e:  rounded,
			ValueKgCO2e: kg,
		}
		roundedSum += rounded
	}
	result.TotalTCO2e = emissionsdomain.RoundHalfUp1(roundedSum)

	s.metrics.RecordPeriodCompute(ctx, orgID.String())
	s.metrics.RecordUnknownMetricRows(ctx, orgID.String(), int64(warnings))
	obsmetrics.Engine().ObserveComputeDuration(time.Since(computeStart))

	return result, nil
}

func (s *Service) ComputeYear(ctx context.Context, orgID snowflake.ID, year int, loc *time.Location) (*emissionsdomain.PeriodEmissions, error) {
	if year <= 0 {
		return nil, emissionsdomain.ErrInvalidYear
	}
	start, end := emissionsdomain.YearBounds(year, loc)
	return s.ComputePeriod(ctx, orgID, start, end)
}

// ComputeBaselineYear resolves the baseline year (explicit, else
// ReportingYear minus the configured offset) and delegates to ComputeYear.
// Returns the resolved year alongside the result.
func (s *Service) ComputeBaselineYear(ctx context.Context, req emissionsdomain.BaselineYearRequest) (*emissionsdomain.PeriodEmissions, int, error) {
	year := 0
	switch {
	case req.ExplicitYear != nil:
		year = *req.ExplicitYear
	case req.ReportingYear > 0:
		offset := req.OffsetYears
		if offset <= 0 {
			offset = 2
		}
		year = req.ReportingYear - offset
	default:
		return nil, 0, emissionsdomain.ErrInvalidReportingYear
	}
	if year <= 0 {
		return nil, 0, emissionsdomain.ErrInvalidYear
	}

	result, err := s.ComputeYear(ctx, req.OrgID, year, req.Location)
	if err != nil {
		return nil, 0, err
	}
	return result, year, nil
}

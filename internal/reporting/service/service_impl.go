package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	baselinedomain "github.com/smallbiznis/carbonledger/internal/baseline/domain"
	"github.com/smallbiznis/carbonledger/internal/cache"
	emissionsdomain "github.com/smallbiznis/carbonledger/internal/emissions/domain"
	metricstoredomain "github.com/smallbiznis/carbonledger/internal/metricstore/domain"
	"github.com/smallbiznis/carbonledger/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Engine   emissionsdomain.Engine
	Cache    *cache.PeriodCache
	Baseline baselinedomain.Manager
}

type Service struct {
	log      *zap.Logger
	engine   emissionsdomain.Engine
	cache    *cache.PeriodCache
	baseline baselinedomain.Manager
}

func NewService(p ServiceParam) domain.Reporter {
	return &Service{
		log:      p.Log.Named("reporting.service"),
		engine:   p.Engine,
		cache:    p.Cache,
		baseline: p.Baseline,
	}
}

func (s *Service) GetPeriodEmissions(ctx context.Context, orgID snowflake.ID, start, end time.Time) (*domain.PeriodReport, error) {
	if !start.Before(end) {
		return nil, metricstoredomain.ErrInvalidPeriod
	}

	key := cache.PeriodKey{OrgID: orgID, PeriodStart: start, PeriodEnd: end}
	result, storedAt, err := s.cache.GetOrCompute(ctx, key, cache.PolicyRolling,
		func(ctx context.Context) (*emissionsdomain.PeriodEmissions, error) {
			return s.engine.ComputePeriod(ctx, orgID, start, end)
		})
	if err != nil {
		return nil, err
	}
	return periodReport(result, storedAt), nil
}

func (s *Service) GetYearEmissions(ctx context.Context, orgID snowflake.ID, year int, loc *time.Location) (*domain.PeriodReport, error) {
	if year <= 0 {
		return nil, emissionsdomain.ErrInvalidYear
	}
	start, end := emissionsdomain.YearBounds(year, loc)
	return s.GetPeriodEmissions(ctx, orgID, start, end)
}

func (s *Service) GetBaselineEmissions(ctx context.Context, req baselinedomain.GetRequest) (*domain.BaselineReport, error) {
	snapshot, err := s.baseline.Get(ctx, req)
	if err != nil {
		return nil, err
	}
	return baselineReport(snapshot), nil
}

func periodReport(result *emissionsdomain.PeriodEmissions, computedAt time.Time) *domain.PeriodReport {
	scopes := make([]domain.ScopeLine, 0, len(result.ScopeTotals))
	for _, total := range result.ScopeTotals {
		scopes = append(scopes, domain.ScopeLine{
			Scope: total.Scope,
			TCO2e: domain.FormatTonnes(total.ValueTCO2e),
		})
	}
	return &domain.PeriodReport{
		OrgID:       result.OrgID.String(),
		PeriodStart: result.PeriodStart,
		PeriodEnd:   result.PeriodEnd,
		Scopes:      scopes,
		TotalTCO2e:  domain.FormatTonnes(result.TotalTCO2e),
		CoveragePct: domain.FormatTonnes(result.CoveragePct()),
		Warnings:    result.Warnings,
		ComputedAt:  computedAt,
	}
}

func baselineReport(snapshot *baselinedomain.BaselineSnapshot) *domain.BaselineReport {
	return &domain.BaselineReport{
		OrgID:        snapshot.OrgID.String(),
		TargetID:     snapshot.TargetID,
		BaselineYear: snapshot.BaselineYear,
		Scopes: []domain.ScopeLine{
			{Scope: 1, TCO2e: domain.FormatTonnes(snapshot.Scope1TCO2e)},
			{Scope: 2, TCO2e: domain.FormatTonnes(snapshot.Scope2TCO2e)},
			{Scope: 3, TCO2e: domain.FormatTonnes(snapshot.Scope3TCO2e)},
		},
		TotalTCO2e:  domain.FormatTonnes(snapshot.TotalTCO2e),
		CoveragePct: domain.FormatTonnes(snapshot.CoveragePct),
		Warnings:    snapshot.Warnings,
		IsStale:     snapshot.Stale,
		Version:     snapshot.Version,
		ComputedAt:  snapshot.ComputedAt,
	}
}

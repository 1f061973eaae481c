package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/carbonledger/internal/catalog/domain"
	emissionsdomain "github.com/smallbiznis/carbonledger/internal/emissions/domain"
	metricstoredomain "github.com/smallbiznis/carbonledger/internal/metricstore/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type storeStub struct {
	records []metricstoredomain.MetricRecord
	err     error
	calls   int
}

func (s *storeStub) FetchRecords(ctx context.Context, orgID snowflake.ID, start, end time.Time) ([]metricstoredomain.MetricRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type resolverStub struct {
	table map[string]catalogdomain.Resolution
}

func (r *resolverStub) Resolve(metricID string) (catalogdomain.Resolution, error) {
	resolution, ok := r.table[metricID]
	if !ok {
		return catalogdomain.Resolution{}, catalogdomain.ErrUnknownMetric
	}
	return resolution, nil
}

func (r *resolverStub) Reload(ctx context.Context) error { return nil }

func (r *resolverStub) Size() int { return len(r.table) }

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func defaultResolver() *resolverStub {
	return &resolverStub{table: map[string]catalogdomain.Resolution{
		"electricity_grid": {MetricID: "electricity_grid", Scope: 2, Category: "purchased_energy", Unit: "kgCO2e"},
		"fleet_diesel":     {MetricID: "fleet_diesel", Scope: 1, Category: "mobile_combustion", Unit: "kgCO2e"},
		"purchased_goods":  {MetricID: "purchased_goods", Scope: 3, Category: "upstream", Unit: "kgCO2e"},
	}}
}

func newEngine(store *storeStub, resolver catalogdomain.Resolver) emissionsdomain.Engine {
	return NewService(ServiceParam{
		Log:      zap.NewNop(),
		Store:    store,
		Resolver: resolver,
	})
}

func record(orgID snowflake.ID, metricID string, kg float64, start time.Time) metricstoredomain.MetricRecord {
	return metricstoredomain.MetricRecord{
		OrgID:       orgID,
		MetricID:    metricID,
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, 0),
		ValueKgCO2e: kg,
	}
}

func TestComputePeriodScopeDecomposition(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	store := &storeStub{records: []metricstoredomain.MetricRecord{
		record(orgID, "electricity_grid", 120000, start),
		record(orgID, "electricity_grid", 57900, start.AddDate(0, 6, 0)),
		record(orgID, "purchased_goods", 125700, start),
	}}
	engine := newEngine(store, defaultResolver())

	result, err := engine.ComputePeriod(context.Background(), orgID, start, end)
	assert.NoError(t, err)

	assert.Equal(t, 0.0, result.Scope(1))
	assert.Equal(t, 177.9, result.Scope(2))
	assert.Equal(t, 125.7, result.Scope(3))
	assert.Equal(t, 303.6, result.TotalTCO2e)
	assert.Equal(t, 0, result.Warnings)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 3, result.ResolvedRows)
}

func TestComputePeriodRoundsScopesBeforeTotal(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	// 140 kg and 250 kg round to 0.1 and 0.3 (0.25 rounds up); the total must
	// be 0.1+0.3=0.4, not round(0.39)=0.4 by accident of the raw sum.
	store := &storeStub{records: []metricstoredomain.MetricRecord{
		record(orgID, "fleet_diesel", 140, start),
		record(orgID, "electricity_grid", 250, start),
	}}
	engine := newEngine(store, defaultResolver())

	result, err := engine.ComputePeriod(context.Background(), orgID, start, end)
	assert.NoError(t, err)
	assert.Equal(t, 0.1, result.Scope(1))
	assert.Equal(t, 0.3, result.Scope(2))
	assert.Equal(t, 0.4, result.TotalTCO2e)
}

func TestComputePeriodEmptySetIsZero(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	engine := newEngine(&storeStub{}, defaultResolver())
	result, err := engine.ComputePeriod(context.Background(), orgID, start, start.AddDate(1, 0, 0))
	assert.NoError(t, err)

	assert.Equal(t, 0.0, result.Scope(1))
	assert.Equal(t, 0.0, result.Scope(2))
	assert.Equal(t, 0.0, result.Scope(3))
	assert.Equal(t, 0.0, result.TotalTCO2e)
	assert.Equal(t, 0, result.Warnings)
	assert.Equal(t, 100.0, result.CoveragePct())
}

func TestComputePeriodUnknownMetricIsWarningNotError(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	store := &storeStub{records: []metricstoredomain.MetricRecord{
		record(orgID, "fleet_diesel", 1000, start),
		record(orgID, "mystery_metric", 999999, start),
	}}
	engine := newEngine(store, defaultResolver())

	result, err := engine.ComputePeriod(context.Background(), orgID, start, start.AddDate(1, 0, 0))
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Warnings)
	assert.Equal(t, 1.0, result.Scope(1))
	assert.Equal(t, 1.0, result.TotalTCO2e)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.ResolvedRows)
}

func TestComputePeriodCatalogScopeWins(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	// Record claims scope 1 but the catalog says scope 2.
	rec := record(orgID, "electricity_grid", 5000, start)
	rec.Scope = 1
	store := &storeStub{records: []metricstoredomain.MetricRecord{rec}}
	engine := newEngine(store, defaultResolver())

	result, err := engine.ComputePeriod(context.Background(), orgID, start, start.AddDate(1, 0, 0))
	assert.NoError(t, err)
	assert.Equal(t, 0.0, result.Scope(1))
	assert.Equal(t, 5.0, result.Scope(2))
}

func TestComputePeriodIdempotent(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	store := &storeStub{records: []metricstoredomain.MetricRecord{
		record(orgID, "fleet_diesel", 12345.6, start),
		record(orgID, "electricity_grid", 98765.4, start),
		record(orgID, "purchased_goods", 55555.5, start),
	}}
	engine := newEngine(store, defaultResolver())

	first, err := engine.ComputePeriod(context.Background(), orgID, start, end)
	assert.NoError(t, err)
	second, err := engine.ComputePeriod(context.Background(), orgID, start, end)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputePeriodStoreFailurePropagates(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	engine := newEngine(&storeStub{err: metricstoredomain.ErrDataUnavailable}, defaultResolver())
	result, err := engine.ComputePeriod(context.Background(), orgID, start, start.AddDate(1, 0, 0))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, metricstoredomain.ErrDataUnavailable)
}

func TestComputePeriodInvalidOrganization(t *testing.T) {
	engine := newEngine(&storeStub{}, defaultResolver())
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := engine.ComputePeriod(context.Background(), 0, start, start.AddDate(1, 0, 0))
	assert.ErrorIs(t, err, emissionsdomain.ErrInvalidOrganization)
}

func TestComputeBaselineYearDerivesFromReportingYear(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()

	engine := newEngine(&storeStub{}, defaultResolver())
	_, year, err := engine.ComputeBaselineYear(context.Background(), emissionsdomain.BaselineYearRequest{
		OrgID:         orgID,
		ReportingYear: 2025,
		OffsetYears:   2,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2023, year)
}

func TestComputeBaselineYearExplicitOverride(t *testing.T) {
	node := mustNode(t)
	orgID := node.Generate()
	explicit := 2019

	engine := newEngine(&storeStub{}, defaultResolver())
	_, year, err := engine.ComputeBaselineYear(context.Background(), emissionsdomain.BaselineYearRequest{
		OrgID:         orgID,
		ExplicitYear:  &explicit,
		ReportingYear: 2025,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2019, year)
}

func TestComputeBaselineYearRequiresReportingYear(t *testing.T) {
	node := mustNode(t)
	engine := newEngine(&storeStub{}, defaultResolver())
	_, _, err := engine.ComputeBaselineYear(context.Background(), emissionsdomain.BaselineYearRequest{
		OrgID: node.Generate(),
	})
	assert.ErrorIs(t, err, emissionsdomain.ErrInvalidReportingYear)
}

package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/carbonledger/internal/catalog/domain"
	"github.com/smallbiznis/carbonledger/internal/catalog/repository"
	"github.com/smallbiznis/carbonledger/internal/clock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCatalog(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	// One pooled connection, or each new conn sees its own empty memory DB.
	sqlDB.SetMaxOpenConns(1)
	assert.NoError(t, db.AutoMigrate(&domain.CatalogEntry{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	resolver := NewService(ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
	})
	return resolver.(*Service)
}

func TestResolveAfterSeed(t *testing.T) {
	svc := setupCatalog(t)

	err := svc.ApplySeed(context.Background(), []SeedEntry{
		{MetricID: "electricity_grid", Scope: 2, Category: "purchased_energy"},
		{MetricID: "fleet_diesel", Scope: 1, Category: "mobile_combustion"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, svc.Size())

	resolution, err := svc.Resolve("electricity_grid")
	assert.NoError(t, err)
	assert.Equal(t, 2, resolution.Scope)
	assert.Equal(t, "purchased_energy", resolution.Category)
	assert.Equal(t, "kgCO2e", resolution.Unit)
}

func TestResolveNormalizesMetricID(t *testing.T) {
	svc := setupCatalog(t)
	err := svc.ApplySeed(context.Background(), []SeedEntry{
		{MetricID: "Electricity_Grid", Scope: 2, Category: "purchased_energy"},
	})
	assert.NoError(t, err)

	resolution, err := svc.Resolve("  ELECTRICITY_GRID  ")
	assert.NoError(t, err)
	assert.Equal(t, 2, resolution.Scope)
}

func TestResolveUnknownMetric(t *testing.T) {
	svc := setupCatalog(t)
	assert.NoError(t, svc.Reload(context.Background()))

	_, err := svc.Resolve("no_such_metric")
	assert.ErrorIs(t, err, domain.ErrUnknownMetric)

	_, err = svc.Resolve("   ")
	assert.ErrorIs(t, err, domain.ErrInvalidMetricID)
}

func TestApplySeedRejectsInvalidScope(t *testing.T) {
	svc := setupCatalog(t)
	err := svc.ApplySeed(context.Background(), []SeedEntry{
		{MetricID: "bad_metric", Scope: 4, Category: "nope"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidScope)
}

func TestSeedUpsertIsIdempotent(t *testing.T) {
	svc := setupCatalog(t)
	entries := []SeedEntry{
		{MetricID: "fleet_diesel", Scope: 1, Category: "mobile_combustion"},
	}
	assert.NoError(t, svc.ApplySeed(context.Background(), entries))

	// Re-seeding with a changed scope updates in place instead of duplicating.
	entries[0].Scope = 3
	assert.NoError(t, svc.ApplySeed(context.Background(), entries))
	assert.Equal(t, 1, svc.Size())

	resolution, err := svc.Resolve("fleet_diesel")
	assert.NoError(t, err)
	assert.Equal(t, 3, resolution.Scope)
}

func TestLoadSeedFile(t *testing.T) {
	svc := setupCatalog(t)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	seed := `metrics:
  - metric_id: electricity_grid
    scope: 2
    category: purchased_energy
  - metric_id: purchased_goods
    scope: 3
    category: upstream
    unit: kgCO2e
`
	assert.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	assert.NoError(t, svc.LoadSeedFile(context.Background(), path))
	assert.Equal(t, 2, svc.Size())

	resolution, err := svc.Resolve("purchased_goods")
	assert.NoError(t, err)
	assert.Equal(t, 3, resolution.Scope)
}

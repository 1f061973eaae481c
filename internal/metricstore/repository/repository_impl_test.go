package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/carbonledger/internal/config"
	"github.com/smallbiznis/carbonledger/internal/metricstore/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	// One pooled connection, or each new conn sees its own empty memory DB.
	sqlDB.SetMaxOpenConns(1)
	return db
}

func setupStore(t *testing.T) (domain.Store, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db := openTestDB(t)
	assert.NoError(t, db.AutoMigrate(&domain.MetricRecord{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	store := Provide(StoreParam{
		DB:     db,
		Log:    zap.NewNop(),
		Config: config.Config{StoreTimeout: 5 * time.Second},
	})
	return store, db, node
}

func TestFetchRecordsHalfOpenInterval(t *testing.T) {
	store, db, node := setupStore(t)
	orgID := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	inside := &domain.MetricRecord{
		ID: node.Generate(), OrgID: orgID, MetricID: "fleet_diesel",
		PeriodStart: start, PeriodEnd: start.AddDate(0, 1, 0), ValueKgCO2e: 100,
	}
	atEnd := &domain.MetricRecord{
		ID: node.Generate(), OrgID: orgID, MetricID: "fleet_diesel",
		PeriodStart: end, PeriodEnd: end.AddDate(0, 1, 0), ValueKgCO2e: 200,
	}
	before := &domain.MetricRecord{
		ID: node.Generate(), OrgID: orgID, MetricID: "fleet_diesel",
		PeriodStart: start.AddDate(-1, 0, 0), PeriodEnd: start, ValueKgCO2e: 300,
	}
	assert.NoError(t, db.Create(inside).Error)
	assert.NoError(t, db.Create(atEnd).Error)
	assert.NoError(t, db.Create(before).Error)

	records, err := store.FetchRecords(context.Background(), orgID, start, end)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, inside.ID, records[0].ID)
}

func TestFetchRecordsScopedToOrganization(t *testing.T) {
	store, db, node := setupStore(t)
	orgA := node.Generate()
	orgB := node.Generate()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	assert.NoError(t, db.Create(&domain.MetricRecord{
		ID: node.Generate(), OrgID: orgA, MetricID: "electricity_grid",
		PeriodStart: start, PeriodEnd: end, ValueKgCO2e: 100,
	}).Error)
	assert.NoError(t, db.Create(&domain.MetricRecord{
		ID: node.Generate(), OrgID: orgB, MetricID: "electricity_grid",
		PeriodStart: start, PeriodEnd: end, ValueKgCO2e: 900,
	}).Error)

	records, err := store.FetchRecords(context.Background(), orgA, start, end)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, orgA, records[0].OrgID)
}

func TestFetchRecordsEmptyIsNotAnError(t *testing.T) {
	store, _, node := setupStore(t)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	records, err := store.FetchRecords(context.Background(), node.Generate(), start, start.AddDate(1, 0, 0))
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchRecordsRejectsInvalidPeriod(t *testing.T) {
	store, _, node := setupStore(t)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.FetchRecords(context.Background(), node.Generate(), start, start)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestFetchRecordsTimeoutMapsToDataUnavailable(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.AutoMigrate(&domain.MetricRecord{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	store := Provide(StoreParam{
		DB:     db,
		Log:    zap.NewNop(),
		Config: config.Config{StoreTimeout: time.Nanosecond},
	})

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = store.FetchRecords(context.Background(), node.Generate(), start, start.AddDate(1, 0, 0))
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

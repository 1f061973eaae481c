package service

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carbonledger/internal/catalog/domain"
	"github.com/smallbiznis/carbonledger/internal/clock"
	obsmetrics "github.com/smallbiznis/carbonledger/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Clock   clock.Clock
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	clock   clock.Clock
	metrics *obsmetrics.Metrics

	// snapshot is the immutable resolve table; Reload swaps it atomically so
	// concurrent Resolve calls never observe a partial catalog.
	snapshot atomic.Pointer[map[string]domain.Resolution]
}

func NewService(p ServiceParam) domain.Resolver {
	s := &Service{
		db:      p.DB,
		log:     p.Log.Named("catalog.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
	empty := map[string]domain.Resolution{}
	s.snapshot.Store(&empty)
	return s
}

func (s *Service) Resolve(metricID string) (domain.Resolution, error) {
	key := normalizeMetricID(metricID)
	if key == "" {
		return domain.Resolution{}, domain.ErrInvalidMetricID
	}
	table := *s.snapshot.Load()
	resolution, ok := table[key]
	if !ok {
		return domain.Resolution{}, domain.ErrUnknownMetric
	}
	return resolution, nil
}

func (s *Service) Size() int {
	return len(*s.snapshot.Load())
}

// Reload re-reads the catalog table and swaps the in-memory snapshot.
func (s *Service) Reload(ctx context.Context) error {
	entries, err := s.repo.ListActive(ctx, s.db)
	if err != nil {
		return err
	}

	table := make(map[string]domain.Resolution, len(entries))
	for _, entry := range entries {
		if !domain.ValidScope(entry.Scope) {
			s.log.Warn("skipping catalog entry with invalid scope",
				zap.String("metric_id", entry.MetricID),
				zap.Int("scope", entry.Scope),
			)
			continue
		}
		table[normalizeMetricID(entry.MetricID)] = domain.Resolution{
			MetricID: entry.MetricID,
			Scope:    entry.Scope,
			Category: entry.Category,
			Unit:     entry.Unit,
		}
	}

	s.snapshot.Store(&table)
	s.metrics.RecordCatalogReload(ctx, "db")
	s.log.Info("catalog reloaded", zap.Int("entries", len(table)))
	return nil
}

// ApplySeed upserts entries parsed from the seed file, then reloads.
func (s *Service) ApplySeed(ctx context.Context, entries []SeedEntry) error {
	now := s.clock.Now()
	for _, seed := range entries {
		metricID := normalizeMetricID(seed.MetricID)
		if metricID == "" {
			return domain.ErrInvalidMetricID
		}
		if !domain.ValidScope(seed.Scope) {
			return domain.ErrInvalidScope
		}
		unit := strings.TrimSpace(seed.Unit)
		if unit == "" {
			unit = "kgCO2e"
		}
		active := true
		if seed.Active != nil {
			active = *seed.Active
		}
		entry := &domain.CatalogEntry{
			ID:        s.genID.Generate(),
			MetricID:  metricID,
			Scope:     seed.Scope,
			Category:  strings.TrimSpace(seed.Category),
			Unit:      unit,
			Active:    active,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Upsert(ctx, s.db, entry); err != nil {
			return err
		}
	}
	return s.Reload(ctx)
}

func normalizeMetricID(metricID string) string {
	return strings.ToLower(strings.TrimSpace(metricID))
}

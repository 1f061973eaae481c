package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/carbonledger/internal/baseline/domain"
	"github.com/smallbiznis/carbonledger/internal/cache"
	"github.com/smallbiznis/carbonledger/internal/clock"
	"github.com/smallbiznis/carbonledger/internal/config"
	emissionsdomain "github.com/smallbiznis/carbonledger/internal/emissions/domain"
	"github.com/smallbiznis/carbonledger/internal/lock"
	obsmetrics "github.com/smallbiznis/carbonledger/internal/observability/metrics"
	pkgdb "github.com/smallbiznis/carbonledger/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	writeAttempts   = 3
	lockAttempts    = 3
	lockTTL         = 30 * time.Second
	lockRetryDelay  = 200 * time.Millisecond
	writeRetryDelay = 50 * time.Millisecond
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Engine  emissionsdomain.Engine
	Cache   *cache.PeriodCache
	Guard   lock.Guard
	Clock   clock.Clock
	Config  config.Config
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	engine  emissionsdomain.Engine
	cache   *cache.PeriodCache
	guard   lock.Guard
	clock   clock.Clock
	cfg     config.Config
	metrics *obsmetrics.Metrics
}

func NewService(p ServiceParam) domain.Manager {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("baseline.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		engine:  p.Engine,
		cache:   p.Cache,
		guard:   p.Guard,
		clock:   p.Clock,
		cfg:     p.Config,
		metrics: p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, req domain.GetRequest) (*domain.BaselineSnapshot, error) {
	targetID, err := normalizeTargetID(req.TargetID)
	if err != nil {
		return nil, err
	}
	if req.OrgID == 0 {
		return nil, emissionsdomain.ErrInvalidOrganization
	}

	snapshot, err := s.repo.FindByOrgTarget(ctx, s.db, req.OrgID, targetID)
	switch {
	case errors.Is(err, domain.ErrSnapshotNotFound):
		// First access computes lazily.
	case err != nil:
		return nil, err
	case snapshot.Stale && !req.Refresh:
		// Stale snapshots are still served; the caller sees Stale=true and
		// decides whether to force a refresh.
		obsmetrics.Engine().IncStaleRead()
		return snapshot, nil
	case !snapshot.Stale && !req.Refresh:
		return snapshot, nil
	}

	return s.Recompute(ctx, domain.RecomputeRequest{
		OrgID:         req.OrgID,
		TargetID:      targetID,
		ReportingYear: req.ReportingYear,
		ExplicitYear:  req.ExplicitYear,
		Location:      req.Location,
	})
}

// Recompute rebuilds the snapshot from raw metric records under a per-key
// lock and persists it with an optimistic version check. The stored version
// is read BEFORE the engine runs: any write landing in between (a concurrent
// recompute in another process, or MarkStale bumping the version after a
// backfill) fails the version check, and the retry re-reads AND recomputes
// against the fresh record set rather than re-submitting a stale result.
func (s *Service) Recompute(ctx context.Context, req domain.RecomputeRequest) (*domain.BaselineSnapshot, error) {
	targetID, err := normalizeTargetID(req.TargetID)
	if err != nil {
		return nil, err
	}
	if req.OrgID == 0 {
		return nil, emissionsdomain.ErrInvalidOrganization
	}

	runID := ulid.Make().String()
	lockKey := fmt.Sprintf("baseline:recompute:%s:%s", req.OrgID, targetID)

	token, err := s.acquireLock(ctx, lockKey)
	if err != nil {
		obsmetrics.Engine().IncRecomputeAttempt(obsmetrics.RecomputeOutcomeConflict)
		return nil, err
	}
	defer func() {
		if releaseErr := s.guard.Release(context.WithoutCancel(ctx), lockKey, token); releaseErr != nil {
			s.log.Warn("baseline lock release failed", zap.String("run_id", runID), zap.Error(releaseErr))
		}
	}()

	snapshot, result, year, err := s.computeAndPersist(ctx, req, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			obsmetrics.Engine().IncRecomputeAttempt(obsmetrics.RecomputeOutcomeConflict)
		} else {
			obsmetrics.Engine().IncRecomputeAttempt(obsmetrics.RecomputeOutcomeFailed)
		}
		return nil, err
	}

	s.cache.InvalidateYear(req.OrgID, year, req.Location)
	start, end := emissionsdomain.YearBounds(year, req.Location)
	s.cache.Put(cache.PeriodKey{OrgID: req.OrgID, PeriodStart: start, PeriodEnd: end}, cache.PolicyBaseline, result)
	s.metrics.RecordBaselineRecompute(ctx, req.OrgID.String(), obsmetrics.RecomputeOutcomeSucceeded)
	obsmetrics.Engine().IncRecomputeAttempt(obsmetrics.RecomputeOutcomeSucceeded)
	s.log.Info("baseline snapshot recomputed",
		zap.String("run_id", runID),
		zap.String("org_id", req.OrgID.String()),
		zap.String("target_id", targetID),
		zap.Int("baseline_year", year),
		zap.Float64("total_tco2e", snapshot.TotalTCO2e),
		zap.Int("warnings", snapshot.Warnings),
		zap.Int64("version", snapshot.Version),
	)
	return snapshot, nil
}

func (s *Service) MarkStale(ctx context.Context, orgID snowflake.ID, year int) (int64, error) {
	if orgID == 0 {
		return 0, emissionsdomain.ErrInvalidOrganization
	}
	if year <= 0 {
		return 0, emissionsdomain.ErrInvalidYear
	}

	flagged, err := s.repo.MarkStaleYear(ctx, s.db, orgID, year, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if flagged > 0 {
		s.cache.InvalidateYear(orgID, year, nil)
		s.log.Info("baseline snapshots marked stale",
			zap.String("org_id", orgID.String()),
			zap.Int("baseline_year", year),
			zap.Int64("snapshots", flagged),
		)
	}
	return flagged, nil
}

func (s *Service) acquireLock(ctx context.Context, key string) (string, error) {
	for attempt := 1; attempt <= lockAttempts; attempt++ {
		token, ok, err := s.guard.TryLock(ctx, key, lockTTL)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		obsmetrics.Engine().IncLockContention()
		if attempt == lockAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return "", domain.ErrConcurrentUpdate
}

// computeAndPersist runs the read-compute-write cycle. Insert handles the
// first computation; a duplicate-key error means another writer inserted
// concurrently and the next attempt falls through to the versioned update.
func (s *Service) computeAndPersist(ctx context.Context, req domain.RecomputeRequest, targetID string) (*domain.BaselineSnapshot, *emissionsdomain.PeriodEmissions, int, error) {
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		existing, err := s.repo.FindByOrgTarget(ctx, s.db, req.OrgID, targetID)
		if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
			return nil, nil, 0, err
		}

		result, year, err := s.engine.ComputeBaselineYear(ctx, emissionsdomain.BaselineYearRequest{
			OrgID:         req.OrgID,
			ExplicitYear:  req.ExplicitYear,
			ReportingYear: req.ReportingYear,
			OffsetYears:   s.cfg.BaselineOffsetYears,
			Location:      req.Location,
		})
		if err != nil {
			return nil, nil, 0, err
		}

		now := s.clock.Now()
		snapshot := &domain.BaselineSnapshot{
			OrgID:        req.OrgID,
			TargetID:     targetID,
			BaselineYear: year,
			Scope1TCO2e:  result.Scope(1),
			Scope2TCO2e:  result.Scope(2),
			Scope3TCO2e:  result.Scope(3),
			TotalTCO2e:   result.TotalTCO2e,
			CoveragePct:  result.CoveragePct(),
			Warnings:     result.Warnings,
			Stale:        false,
			ComputedAt:   now,
			UpdatedAt:    now,
		}

		if existing == nil {
			snapshot.ID = s.genID.Generate()
			snapshot.Version = 1
			snapshot.CreatedAt = now
			err = s.repo.Insert(ctx, s.db, snapshot)
			if err == nil {
				return snapshot, result, year, nil
			}
			if pkgdb.IsDuplicateKeyErr(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
				obsmetrics.Engine().IncVersionConflict()
				continue
			}
			return nil, nil, 0, err
		}

		snapshot.ID = existing.ID
		snapshot.Version = existing.Version + 1
		snapshot.CreatedAt = existing.CreatedAt
		err = s.repo.UpdateVersioned(ctx, s.db, snapshot, existing.Version)
		if err == nil {
			return snapshot, result, year, nil
		}
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			obsmetrics.Engine().IncVersionConflict()
			if attempt < writeAttempts {
				select {
				case <-ctx.Done():
					return nil, nil, 0, ctx.Err()
				case <-time.After(writeRetryDelay):
				}
			}
			continue
		}
		return nil, nil, 0, err
	}

	return nil, nil, 0, domain.ErrConcurrentUpdate
}

func normalizeTargetID(targetID string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(targetID))
	if trimmed == "" {
		return "", domain.ErrInvalidTarget
	}
	return trimmed, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carbonledger/internal/config"
	"github.com/smallbiznis/carbonledger/internal/metricstore/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultFetchTimeout = 10 * time.Second

type StoreParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Config config.Config
}

type store struct {
	db      *gorm.DB
	log     *zap.Logger
	timeout time.Duration
}

func Provide(p StoreParam) domain.Store {
	timeout := p.Config.StoreTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &store{
		db:      p.DB,
		log:     p.Log.Named("metricstore"),
		timeout: timeout,
	}
}

func (s *store) FetchRecords(ctx context.Context, orgID snowflake.ID, start, end time.Time) ([]domain.MetricRecord, error) {
	if !end.After(start) {
		return nil, domain.ErrInvalidPeriod
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var records []domain.MetricRecord
	err := s.db.WithContext(fetchCtx).
		Where("org_id = ? AND period_start >= ? AND period_start < ?", orgID, start, end).
		Order("period_start ASC, id ASC").
		Find(&records).Error
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			s.log.Warn("metric record fetch timed out",
				zap.String("org_id", orgID.String()),
				zap.Duration("timeout", s.timeout),
			)
			return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	return records, nil
}

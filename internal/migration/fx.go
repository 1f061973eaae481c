package migration

import (
	baselinedomain "github.com/smallbiznis/carbonledger/internal/baseline/domain"
	catalogdomain "github.com/smallbiznis/carbonledger/internal/catalog/domain"
	"github.com/smallbiznis/carbonledger/internal/config"
	metricstoredomain "github.com/smallbiznis/carbonledger/internal/metricstore/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL path is postgres-only; sqlite and mysql dev
		// environments fall back to schema auto-migration.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&catalogdomain.CatalogEntry{},
				&metricstoredomain.MetricRecord{},
				&baselinedomain.BaselineSnapshot{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

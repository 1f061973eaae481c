package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carbonledger/internal/baseline"
	"github.com/smallbiznis/carbonledger/internal/cache"
	"github.com/smallbiznis/carbonledger/internal/catalog"
	"github.com/smallbiznis/carbonledger/internal/clock"
	"github.com/smallbiznis/carbonledger/internal/config"
	"github.com/smallbiznis/carbonledger/internal/emissions"
	"github.com/smallbiznis/carbonledger/internal/lock"
	"github.com/smallbiznis/carbonledger/internal/logger"
	"github.com/smallbiznis/carbonledger/internal/metricstore"
	"github.com/smallbiznis/carbonledger/internal/migration"
	"github.com/smallbiznis/carbonledger/internal/observability"
	"github.com/smallbiznis/carbonledger/internal/reporting"
	reportingdomain "github.com/smallbiznis/carbonledger/internal/reporting/domain"
	"github.com/smallbiznis/carbonledger/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		migration.Module,

		// Functional Domains
		catalog.Module,
		metricstore.Module,
		emissions.Module,
		cache.Module,
		baseline.Module,
		reporting.Module,

		fx.Invoke(announceReady),
	)
	app.Run()
}

// announceReady forces construction of the full engine graph; without an
// HTTP surface nothing else pulls on the reporting facade.
func announceReady(log *zap.Logger, _ reportingdomain.Reporter) {
	log.Named("app").Info("emissions engine ready")
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

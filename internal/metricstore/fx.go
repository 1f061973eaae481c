package metricstore

import (
	"github.com/smallbiznis/carbonledger/internal/metricstore/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("metricstore",
	fx.Provide(repository.Provide),
)

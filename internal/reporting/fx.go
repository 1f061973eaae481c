package reporting

import (
	"github.com/smallbiznis/carbonledger/internal/reporting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reporting",
	fx.Provide(service.NewService),
)

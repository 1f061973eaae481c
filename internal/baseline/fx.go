package baseline

import (
	"github.com/smallbiznis/carbonledger/internal/baseline/repository"
	"github.com/smallbiznis/carbonledger/internal/baseline/service"
	"go.uber.org/fx"
)

var Module = fx.Module("baseline",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)

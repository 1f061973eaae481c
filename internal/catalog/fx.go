package catalog

import (
	"context"

	"github.com/smallbiznis/carbonledger/internal/catalog/domain"
	"github.com/smallbiznis/carbonledger/internal/catalog/repository"
	"github.com/smallbiznis/carbonledger/internal/catalog/service"
	"github.com/smallbiznis/carbonledger/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Invoke(warmup),
)

// warmup loads the resolver snapshot at process start and starts the seed
// file watcher when one is configured.
func warmup(lc fx.Lifecycle, resolver domain.Resolver, cfg config.Config, log *zap.Logger) {
	svc, ok := resolver.(*service.Service)
	if !ok {
		return
	}

	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if service.IsSeedConfigured(cfg.CatalogFile) {
				if err := svc.LoadSeedFile(ctx, cfg.CatalogFile); err != nil {
					return err
				}
			} else if err := svc.Reload(ctx); err != nil {
				return err
			}

			if service.IsSeedConfigured(cfg.CatalogFile) {
				var watchCtx context.Context
				watchCtx, cancel = context.WithCancel(context.Background())
				go func() {
					if err := svc.Watch(watchCtx, cfg.CatalogFile); err != nil && watchCtx.Err() == nil {
						log.Warn("catalog watcher stopped", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/warp10-fixture/internal/fixturepool"
	apihttp "github.com/dropDatabas3/warp10-fixture/internal/http"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
	"github.com/dropDatabas3/warp10-fixture/warp10"
)

// poolProvider adapta el pool tipado a apihttp.Provider.
type poolProvider struct {
	p *fixturepool.Pool[*warp10.Container]
}

func (pp poolProvider) Get(ctx context.Context, tag string) (apihttp.Fixture, error) {
	c, err := pp.p.Get(ctx, tag)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (pp poolProvider) Close(ctx context.Context, tag string) error {
	return pp.p.Close(ctx, tag)
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Sirve credenciales de instancias bajo demanda por tag (GET /v1/fixtures/{tag}/credentials)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.With(logger.Component("cli"))
			ctx = logger.ToContext(ctx, log)

			pool := fixturepool.New(func(ctx context.Context, tag string) (*warp10.Container, error) {
				opts, err := fixtureOptions(a.cfg, tag, log)
				if err != nil {
					return nil, err
				}
				// La instancia sobrevive al request que la pidió.
				return warp10.Run(context.WithoutCancel(ctx), opts...)
			}, fixturepool.Config{
				IdleTTL:          a.cfg.PoolIdleTTL(),
				TerminateTimeout: terminateTimeout,
			})
			defer func() {
				tctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
				defer cancel()
				if err := pool.CloseAll(tctx); err != nil {
					log.Warn("pool close failed", logger.Err(err))
				}
			}()

			mh, err := apihttp.RegisterMetrics(a.reg, a.reg)
			if err != nil {
				return err
			}
			router := apihttp.NewRouter(apihttp.RouterConfig{Provider: poolProvider{p: pool}, Metrics: mh})
			return apihttp.NewServer(a.cfg.Serve.Addr, router).ListenAndServe(ctx)
		},
	}
}

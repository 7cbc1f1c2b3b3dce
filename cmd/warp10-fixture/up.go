package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/dropDatabas3/warp10-fixture/internal/http"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
	"github.com/dropDatabas3/warp10-fixture/internal/util/atomicwrite"
	"github.com/dropDatabas3/warp10-fixture/warp10"
)

const terminateTimeout = 30 * time.Second

func (a *app) upCmd() *cobra.Command {
	var (
		tag    string
		envOut string
		serve  bool
		hold   bool
		reveal bool
	)
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Levanta una instancia, genera tokens y espera SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.With(logger.Component("cli"))
			ctx = logger.ToContext(ctx, log)

			opts, err := fixtureOptions(a.cfg, tag, log)
			if err != nil {
				return err
			}
			c, err := warp10.Run(ctx, opts...)
			if err != nil {
				return err
			}
			defer func() {
				tctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
				defer cancel()
				if err := c.Terminate(tctx); err != nil {
					log.Warn("terminate failed", logger.Err(err))
				}
			}()

			cr, err := c.Credentials(ctx)
			if err != nil {
				return err
			}
			if err := printCredentials(cmd.OutOrStdout(), a.out, cr, reveal); err != nil {
				return err
			}
			if envOut != "" {
				if err := writeEnvOut(envOut, cr.Env()); err != nil {
					return err
				}
				log.Info("credentials written", logger.Path(envOut))
			}
			if !hold {
				return nil
			}

			g, gctx := errgroup.WithContext(ctx)
			if serve {
				mh, err := apihttp.RegisterMetrics(a.reg, a.reg)
				if err != nil {
					return err
				}
				srv := apihttp.NewServer(a.cfg.Serve.Addr, apihttp.NewRouter(apihttp.RouterConfig{Fixture: c, Metrics: mh}))
				g.Go(func() error { return srv.ListenAndServe(gctx) })
			}
			g.Go(func() error {
				<-gctx.Done()
				return nil
			})
			logger.S().Infof("warp10 fixture %s up; waiting for signal", c.ID())
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "tag de la imagen (default: config warp10.tag)")
	cmd.Flags().StringVar(&envOut, "env-out", "", "escribe las credenciales como env file (0600, atómico)")
	cmd.Flags().BoolVar(&serve, "serve", false, "expone /v1/credentials y /metrics en serve.addr")
	cmd.Flags().BoolVar(&hold, "hold", true, "mantiene la instancia hasta SIGINT/SIGTERM")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "muestra tokens y claves sin enmascarar en --out text")
	return cmd
}

// writeEnvOut escribe vars y relee el archivo: lo que queda en disco debe
// poder cargarse con godotenv tal cual.
func writeEnvOut(path string, vars map[string]string) error {
	if err := atomicwrite.WriteEnv(path, vars); err != nil {
		return fmt.Errorf("env-out: %w", err)
	}
	got, err := atomicwrite.ReadEnv(path)
	if err != nil {
		return fmt.Errorf("env-out: reread %s: %w", path, err)
	}
	for k, v := range vars {
		if got[k] != v {
			return fmt.Errorf("env-out: %s does not round-trip in %s", k, path)
		}
	}
	return nil
}

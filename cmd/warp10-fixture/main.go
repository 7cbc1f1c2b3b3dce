package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/warp10-fixture/internal/config"
	"github.com/dropDatabas3/warp10-fixture/internal/metrics"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
)

var version = "dev"

type app struct {
	cfgPath string
	envFile string
	out     string

	cfg *config.Config
	reg *prometheus.Registry
}

func main() {
	a := &app{}
	root := a.rootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "warp10-fixture",
		Short:         "Instancias efímeras de Warp 10 con tokens y claves listos para tests",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", envOr("CONFIG_PATH", "warp10-fixture.yaml"), "ruta a config YAML (opcional; env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "ruta a .env (si existe, se carga antes de la config)")
	root.PersistentFlags().StringVar(&a.out, "out", "text", "Formato de salida: json|text")

	root.AddCommand(a.upCmd(), a.serveCmd(), a.keysCmd(), a.parseCmd())
	return root
}

// setup: .env → config (YAML + env) → logger → métricas.
func (a *app) setup() error {
	if a.out != "text" && a.out != "json" {
		return fmt.Errorf("--out: %q (want json|text)", a.out)
	}
	if a.envFile != "" && fileExists(a.envFile) {
		if err := godotenv.Load(a.envFile); err != nil {
			return fmt.Errorf("dotenv %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	a.cfg = cfg

	logger.Init(logger.Config{
		Env:         cfg.Log.Env,
		Level:       cfg.Log.Level,
		ServiceName: "warp10-fixture",
		Version:     version,
	})

	a.reg = prometheus.NewRegistry()
	return metrics.Register(a.reg)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

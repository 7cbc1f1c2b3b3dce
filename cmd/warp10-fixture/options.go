package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/dropDatabas3/warp10-fixture/internal/config"
	"github.com/dropDatabas3/warp10-fixture/warp10"
)

// fixtureOptions traduce la config efectiva a opciones de warp10.Run.
// tag vacío usa el de la config.
func fixtureOptions(cfg *config.Config, tag string, log *zap.Logger) ([]warp10.Option, error) {
	if tag == "" {
		tag = cfg.Warp10.Tag
	}
	opts := []warp10.Option{
		warp10.WithImage(cfg.Warp10.Image),
		warp10.WithTag(tag),
		warp10.WithAppName(cfg.Warp10.AppName),
		warp10.WithTokenValidity(cfg.TokenValidity()),
		warp10.WithServiceUser(cfg.Warp10.ServiceUser),
		warp10.WithStartupTimeout(cfg.StartupTimeout()),
		warp10.WithLogger(log),
	}
	switch cfg.Warp10.Profile {
	case "legacy":
		opts = append(opts, warp10.WithProfile(warp10.LegacyProfile()))
	case "current":
		opts = append(opts, warp10.WithProfile(warp10.CurrentProfile()))
	}
	if cfg.Warp10.MacrosDir != "" {
		opts = append(opts, warp10.WithMacros(cfg.Warp10.MacrosDir))
	}
	if cfg.Warp10.ConfigDir != "" {
		opts = append(opts, warp10.WithConfigOverrides(cfg.Warp10.ConfigDir))
	}
	if cfg.Warp10.TokenScript != "" {
		b, err := os.ReadFile(cfg.Warp10.TokenScript)
		if err != nil {
			return nil, fmt.Errorf("token script: %w", err)
		}
		opts = append(opts, warp10.WithTokenScript(b))
	}
	return opts, nil
}

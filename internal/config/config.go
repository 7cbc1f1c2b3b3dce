package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultImage         = "warp10io/warp10"
	DefaultTag           = "3.4.1-ubuntu-ci"
	DefaultAppName       = "test"
	DefaultValidity      = 365 * 24 * time.Hour
	DefaultServiceUser   = "warp10"
	DefaultStartup       = 2 * time.Minute
	DefaultServeAddr     = "127.0.0.1:8089"
	DefaultPoolIdleTTL   = 5 * time.Minute
	defaultLogEnv        = "dev"
	defaultLogLevel      = "info"
	durationFieldsSuffix = " (duration like 90s, 2m, 8760h)"
)

type Config struct {
	Log struct {
		// dev | prod
		Env   string `yaml:"env"`
		Level string `yaml:"level"`
	} `yaml:"log"`

	Warp10 struct {
		Image string `yaml:"image"`
		Tag   string `yaml:"tag"`
		// Profile fuerza "legacy" o "current"; vacío = según el tag.
		Profile string `yaml:"profile"`

		AppName       string `yaml:"app_name"`
		TokenValidity string `yaml:"token_validity"`
		ServiceUser   string `yaml:"service_user"`

		StartupTimeout string `yaml:"startup_timeout"`

		// Directorios locales a copiar dentro del contenedor.
		MacrosDir string `yaml:"macros_dir"`
		ConfigDir string `yaml:"config_dir"`
		// TokenScript es un archivo WarpScript propio para tokengen.
		TokenScript string `yaml:"token_script"`
	} `yaml:"warp10"`

	Serve struct {
		Addr string `yaml:"addr"`
	} `yaml:"serve"`

	Pool struct {
		IdleTTL string `yaml:"idle_ttl"`
	} `yaml:"pool"`
}

// Default devuelve la configuración sin archivo ni entorno.
func Default() *Config {
	var c Config
	c.setDefaults()
	return &c
}

// Load lee path (opcional: "" o inexistente = solo defaults), aplica
// defaults y luego variables de entorno. No valida; ver Validate.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: defaults + env
		default:
			return nil, err
		}
	}
	c.setDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

// sane defaults
func (c *Config) setDefaults() {
	if c.Log.Env == "" {
		c.Log.Env = defaultLogEnv
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Warp10.Image == "" {
		c.Warp10.Image = DefaultImage
	}
	if c.Warp10.Tag == "" {
		c.Warp10.Tag = DefaultTag
	}
	if c.Warp10.AppName == "" {
		c.Warp10.AppName = DefaultAppName
	}
	if c.Warp10.TokenValidity == "" {
		c.Warp10.TokenValidity = DefaultValidity.String()
	}
	if c.Warp10.ServiceUser == "" {
		c.Warp10.ServiceUser = DefaultServiceUser
	}
	if c.Warp10.StartupTimeout == "" {
		c.Warp10.StartupTimeout = DefaultStartup.String()
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultServeAddr
	}
	if c.Pool.IdleTTL == "" {
		c.Pool.IdleTTL = DefaultPoolIdleTTL.String()
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// LOG
	if v, ok := getEnvStr("LOG_ENV"); ok {
		c.Log.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}

	// WARP10
	if v, ok := getEnvStr("WARP10_IMAGE"); ok {
		c.Warp10.Image = v
	}
	if v, ok := getEnvStr("WARP10_TAG"); ok {
		c.Warp10.Tag = v
	}
	if v, ok := getEnvStr("WARP10_PROFILE"); ok {
		c.Warp10.Profile = strings.ToLower(v)
	}
	if v, ok := getEnvStr("WARP10_APP_NAME"); ok {
		c.Warp10.AppName = v
	}
	if v, ok := getEnvStr("WARP10_TOKEN_VALIDITY"); ok {
		c.Warp10.TokenValidity = v
	}
	if v, ok := getEnvStr("WARP10_SERVICE_USER"); ok {
		c.Warp10.ServiceUser = v
	}
	if v, ok := getEnvStr("WARP10_STARTUP_TIMEOUT"); ok {
		c.Warp10.StartupTimeout = v
	}
	if v, ok := getEnvStr("WARP10_MACROS_DIR"); ok {
		c.Warp10.MacrosDir = v
	}
	if v, ok := getEnvStr("WARP10_CONFIG_DIR"); ok {
		c.Warp10.ConfigDir = v
	}
	if v, ok := getEnvStr("WARP10_TOKEN_SCRIPT"); ok {
		c.Warp10.TokenScript = v
	}

	// SERVE / POOL
	if v, ok := getEnvStr("SERVE_ADDR"); ok {
		c.Serve.Addr = v
	}
	if v, ok := getEnvStr("POOL_IDLE_TTL"); ok {
		c.Pool.IdleTTL = v
	}
}

// Validate chequea duraciones y valores cerrados.
func (c *Config) Validate() error {
	var errs []error
	for _, d := range []struct {
		name, val string
		zeroOK    bool
	}{
		{"warp10.token_validity", c.Warp10.TokenValidity, false},
		{"warp10.startup_timeout", c.Warp10.StartupTimeout, false},
		// 0 desactiva la evicción por inactividad.
		{"pool.idle_ttl", c.Pool.IdleTTL, true},
	} {
		v, err := time.ParseDuration(strings.TrimSpace(d.val))
		if err != nil || v < 0 || (v == 0 && !d.zeroOK) {
			errs = append(errs, fmt.Errorf("%s: invalid value %q%s", d.name, d.val, durationFieldsSuffix))
		}
	}
	switch c.Warp10.Profile {
	case "", "legacy", "current":
	default:
		errs = append(errs, fmt.Errorf("warp10.profile: %q (want legacy|current)", c.Warp10.Profile))
	}
	switch c.Log.Env {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Errorf("log.env: %q (want dev|prod)", c.Log.Env))
	}
	if strings.TrimSpace(c.Warp10.AppName) == "" {
		errs = append(errs, errors.New("warp10.app_name: required"))
	}
	return errors.Join(errs...)
}

// TokenValidity devuelve la validez parseada (llamar después de Validate).
func (c *Config) TokenValidity() time.Duration {
	return mustDur(c.Warp10.TokenValidity, DefaultValidity)
}

// StartupTimeout devuelve el timeout de arranque parseado.
func (c *Config) StartupTimeout() time.Duration {
	return mustDur(c.Warp10.StartupTimeout, DefaultStartup)
}

// PoolIdleTTL devuelve el TTL de inactividad del pool parseado; 0 = sin evicción.
func (c *Config) PoolIdleTTL() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Pool.IdleTTL))
	if err != nil || d < 0 {
		return DefaultPoolIdleTTL
	}
	return d
}

func mustDur(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

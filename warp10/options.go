package warp10

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/warp10-fixture/internal/bootstrap"
	"github.com/dropDatabas3/warp10-fixture/internal/mint"
)

const (
	DefaultImage          = "warp10io/warp10"
	DefaultTag            = "3.4.1-ubuntu-ci"
	DefaultAppName        = "test"
	DefaultTokenValidity  = 365 * 24 * time.Hour
	DefaultStartupTimeout = 2 * time.Minute

	// MacrosPath y ConfigOverridesPath son los destinos dentro de la imagen.
	MacrosPath          = "/opt/warp10/macros"
	ConfigOverridesPath = "/config.extra"
)

// Option configura Run.
type Option func(*options)

type options struct {
	image          string
	tag            string
	appName        string
	validity       time.Duration
	script         []byte
	macrosDir      string
	configDir      string
	profile        *Profile
	serviceUser    string
	startupTimeout time.Duration
	logger         *zap.Logger
}

func defaultOptions() *options {
	return &options{
		image:          DefaultImage,
		tag:            DefaultTag,
		appName:        DefaultAppName,
		validity:       DefaultTokenValidity,
		serviceUser:    mint.DefaultServiceUser,
		startupTimeout: DefaultStartupTimeout,
	}
}

// WithTag fija el tag de la imagen. El tag también elige el perfil salvo WithProfile.
func WithTag(tag string) Option {
	return func(o *options) { o.tag = tag }
}

// WithImage reemplaza el repositorio (mirrors, registries privados).
func WithImage(image string) Option {
	return func(o *options) { o.image = image }
}

// WithAppName fija la aplicación de los tokens.
func WithAppName(name string) Option {
	return func(o *options) { o.appName = name }
}

// WithTokenValidity fija la validez de los tokens.
func WithTokenValidity(d time.Duration) Option {
	return func(o *options) { o.validity = d }
}

// WithTokenScript reemplaza el script WarpScript por defecto. Solo aplica
// a imágenes con el perfil actual; su salida debe ser una lista JSON con
// registros id/token.
func WithTokenScript(script []byte) Option {
	return func(o *options) { o.script = append([]byte(nil), script...) }
}

// WithMacros copia dir (un "macros folder" de Warp 10, con subcarpetas) a MacrosPath.
func WithMacros(dir string) Option {
	return func(o *options) { o.macrosDir = dir }
}

// WithConfigOverrides copia dir (archivos XX-name.conf.template) a ConfigOverridesPath.
func WithConfigOverrides(dir string) Option {
	return func(o *options) { o.configDir = dir }
}

// WithProfile fuerza un perfil en vez de deducirlo del tag.
func WithProfile(p Profile) Option {
	return func(o *options) { o.profile = &p }
}

// WithServiceUser cambia el usuario no-root que corre la generación de tokens.
func WithServiceUser(user string) Option {
	return func(o *options) { o.serviceUser = user }
}

// WithStartupTimeout limita la espera a que el HTTP responda.
func WithStartupTimeout(d time.Duration) Option {
	return func(o *options) { o.startupTimeout = d }
}

// WithLogger usa l en vez del logger del contexto.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func (o *options) imageRef() string {
	return o.image + ":" + o.tag
}

func (o *options) resolveProfile() Profile {
	if o.profile != nil {
		return *o.profile
	}
	return bootstrap.ProfileForTag(o.tag)
}

func (o *options) validate() error {
	var errs []error
	if strings.TrimSpace(o.image) == "" || strings.TrimSpace(o.tag) == "" {
		errs = append(errs, errors.New("image and tag are required"))
	}
	if !appNamePattern.MatchString(o.appName) {
		errs = append(errs, fmt.Errorf("invalid application name %q", o.appName))
	}
	if o.validity < time.Millisecond {
		errs = append(errs, fmt.Errorf("token validity must be at least 1ms, got %s", o.validity))
	}
	if o.startupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("startup timeout must be positive, got %s", o.startupTimeout))
	}
	if strings.TrimSpace(o.serviceUser) == "" {
		errs = append(errs, errors.New("service user is required"))
	}
	for _, d := range []struct{ name, path string }{{"macros", o.macrosDir}, {"config", o.configDir}} {
		if d.path == "" {
			continue
		}
		st, err := os.Stat(d.path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s folder %s does not exist", d.name, d.path))
		} else if !st.IsDir() {
			errs = append(errs, fmt.Errorf("%s folder %s is not a directory", d.name, d.path))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("warp10: %w", err)
	}
	return nil
}

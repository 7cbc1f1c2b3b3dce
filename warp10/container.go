// Package warp10 levanta una instancia efímera de Warp 10 en Docker para
// tests y la deja con credenciales listas: un token de lectura, uno de
// escritura y (en imágenes 3.x) las claves criptográficas de la instancia.
//
//	c, err := warp10.Run(ctx, warp10.WithTag("3.4.1-ubuntu-ci"))
//	if err != nil { ... }
//	defer c.Terminate(ctx)
//	read, _ := c.ReadToken()
package warp10

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dropDatabas3/warp10-fixture/internal/bootstrap"
	"github.com/dropDatabas3/warp10-fixture/internal/instance"
	"github.com/dropDatabas3/warp10-fixture/internal/mint"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
)

const (
	// Port es el puerto HTTP de Warp 10 dentro del contenedor.
	Port     = "8080/tcp"
	protocol = "http"
)

// Container es una instancia de Warp 10 en marcha.
type Container struct {
	testcontainers.Container

	id      string
	image   string
	profile Profile
	coord   *bootstrap.Coordinator
}

// Run arranca la instancia, espera a que el HTTP conteste (404 en /) y
// genera las credenciales. Si cualquier paso falla la instancia se termina
// y se devuelve el error (*mint.ExitError, *tokens.ParseError, instance.ErrIO...).
func Run(ctx context.Context, opts ...Option) (*Container, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	c := &Container{
		id:      uuid.NewString(),
		image:   o.imageRef(),
		profile: o.resolveProfile(),
	}

	log := o.logger
	if log == nil {
		log = logger.From(ctx)
	}
	log = log.With(logger.Component("warp10"), logger.InstanceID(c.id), logger.Image(c.image))
	ctx = logger.ToContext(ctx, log)

	cfg, err := c.bootstrapConfig(o)
	if err != nil {
		return nil, err
	}

	files, err := o.containerFiles()
	if err != nil {
		return nil, err
	}

	req := testcontainers.ContainerRequest{
		Image:        c.image,
		ExposedPorts: []string{Port},
		Files:        files,
		Labels:       map[string]string{"io.warp10.fixture.id": c.id},
		WaitingFor: wait.ForHTTP("/").
			WithPort(Port).
			WithStatusCodeMatcher(func(status int) bool { return status == 404 }).
			WithStartupTimeout(o.startupTimeout),
		LifecycleHooks: []testcontainers.ContainerLifecycleHooks{{
			PostReadies: []testcontainers.ContainerHook{
				func(ctx context.Context, tc testcontainers.Container) error {
					c.Container = tc
					return c.bootstrap(ctx, instance.FromContainer(tc), cfg)
				},
			},
		}},
	}

	log.Info("starting warp10 container", logger.String("profile", c.profile.Name))
	tc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if tc != nil {
			if terr := tc.Terminate(context.WithoutCancel(ctx)); terr != nil {
				log.Warn("terminate after failed start", logger.Err(terr))
			}
		}
		return nil, fmt.Errorf("start warp10 container %s: %w", c.image, err)
	}
	c.Container = tc
	return c, nil
}

func (c *Container) bootstrapConfig(o *options) (bootstrap.Config, error) {
	iv := mint.NewInvoker()
	iv.User = o.serviceUser

	cfg := bootstrap.Config{
		Profile:    c.profile,
		AppName:    o.appName,
		Validity:   o.validity,
		Invoker:    iv,
		InstanceID: c.id,
	}
	if c.profile.Shape == mint.ShapeScript {
		cfg.Script = o.script
		if len(cfg.Script) == 0 {
			script, err := RenderTokenScript(o.appName, o.validity)
			if err != nil {
				return bootstrap.Config{}, err
			}
			cfg.Script = script
		}
	}
	return cfg, nil
}

// bootstrap corre una sola vez, desde el hook post-ready.
func (c *Container) bootstrap(ctx context.Context, inst instance.Instance, cfg bootstrap.Config) error {
	c.coord = bootstrap.New(inst, cfg)
	return c.coord.OnReady(ctx)
}

// containerFiles expande macros y overrides de config archivo por archivo
// para conservar la estructura relativa bajo el destino.
func (o *options) containerFiles() ([]testcontainers.ContainerFile, error) {
	var files []testcontainers.ContainerFile
	for _, d := range []struct{ src, dst string }{
		{o.macrosDir, MacrosPath},
		{o.configDir, ConfigOverridesPath},
	} {
		if d.src == "" {
			continue
		}
		err := filepath.WalkDir(d.src, func(path string, e fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if e.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(d.src, path)
			if err != nil {
				return err
			}
			files = append(files, testcontainers.ContainerFile{
				HostFilePath:      path,
				ContainerFilePath: d.dst + "/" + filepath.ToSlash(rel),
				FileMode:          0o644,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("warp10: collect files from %s: %w", d.src, err)
		}
	}
	return files, nil
}

// ID identifica la instancia en logs, labels y métricas (no es el id de Docker).
func (c *Container) ID() string { return c.id }

// Image devuelve repo:tag.
func (c *Container) Image() string { return c.image }

// Profile devuelve el perfil usado.
func (c *Container) Profile() Profile { return c.profile }

// State devuelve el estado del bootstrap.
func (c *Container) State() State {
	if c.coord == nil {
		return NotStarted
	}
	return c.coord.State()
}

// Err devuelve el error fatal del bootstrap, si lo hubo.
func (c *Container) Err() error {
	if c.coord == nil {
		return nil
	}
	return c.coord.Err()
}

// ReadToken devuelve el token de lectura; ausente hasta TokensGenerated.
func (c *Container) ReadToken() (string, bool) {
	if c.coord == nil {
		return "", false
	}
	return c.coord.ReadToken()
}

// WriteToken devuelve el token de escritura; ausente hasta TokensGenerated.
func (c *Container) WriteToken() (string, bool) {
	if c.coord == nil {
		return "", false
	}
	return c.coord.WriteToken()
}

// TokenForRole busca un rol cualquiera ("ReadToken", "write", ...).
func (c *Container) TokenForRole(role string) (string, bool) {
	if c.coord == nil {
		return "", false
	}
	return c.coord.TokenForRole(role)
}

// Tokens devuelve todos los tokens generados.
func (c *Container) Tokens() (TokenSet, bool) {
	if c.coord == nil {
		return TokenSet{}, false
	}
	return c.coord.Tokens()
}

// CryptoKeys devuelve las claves de la instancia. Ausente en imágenes 2.x.
func (c *Container) CryptoKeys() (CryptoKeySet, bool) {
	if c.coord == nil {
		return CryptoKeySet{}, false
	}
	return c.coord.CryptoKeys()
}

// AESTokenKey: 64 hex (32 bytes) si la instancia es válida.
func (c *Container) AESTokenKey() (string, bool) {
	k, ok := c.CryptoKeys()
	if !ok {
		return "", false
	}
	return k.AESTokenKey()
}

// SipHashAppKey: 32 hex (16 bytes).
func (c *Container) SipHashAppKey() (string, bool) {
	k, ok := c.CryptoKeys()
	if !ok {
		return "", false
	}
	return k.SipHashAppKey()
}

// SipHashTokenKey: 32 hex (16 bytes).
func (c *Container) SipHashTokenKey() (string, bool) {
	k, ok := c.CryptoKeys()
	if !ok {
		return "", false
	}
	return k.SipHashTokenKey()
}

// HTTPHost devuelve el host donde Docker publica el puerto.
func (c *Container) HTTPHost(ctx context.Context) (string, error) {
	if c.Container == nil {
		return "", ErrNotReady
	}
	return c.Host(ctx)
}

// HTTPPort devuelve el puerto mapeado de Port.
func (c *Container) HTTPPort(ctx context.Context) (int, error) {
	if c.Container == nil {
		return 0, ErrNotReady
	}
	p, err := c.MappedPort(ctx, Port)
	if err != nil {
		return 0, err
	}
	return p.Int(), nil
}

// HTTPHostAddress devuelve host:port.
func (c *Container) HTTPHostAddress(ctx context.Context) (string, error) {
	host, err := c.HTTPHost(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.HTTPPort(ctx)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

// Protocol es siempre "http".
func (c *Container) Protocol() string { return protocol }

// URL devuelve la base HTTP (http://host:port).
func (c *Container) URL(ctx context.Context) (string, error) {
	addr, err := c.HTTPHostAddress(ctx)
	if err != nil {
		return "", err
	}
	return protocol + "://" + addr, nil
}

// Credentials junta tokens, claves y dirección. ErrNotReady si el bootstrap no terminó.
func (c *Container) Credentials(ctx context.Context) (Credentials, error) {
	if c.State() != TokensGenerated {
		return Credentials{}, fmt.Errorf("%w (state %s)", ErrNotReady, c.State())
	}
	addr, err := c.HTTPHostAddress(ctx)
	if err != nil {
		return Credentials{}, err
	}
	cr := Credentials{
		ID:       c.id,
		Address:  addr,
		URL:      protocol + "://" + addr,
		Protocol: protocol,
	}
	cr.ReadToken, _ = c.ReadToken()
	cr.WriteToken, _ = c.WriteToken()
	cr.Keys, cr.HasKeys = c.CryptoKeys()
	return cr, nil
}

// Terminate detiene y elimina el contenedor. Es seguro llamarlo más de una vez.
func (c *Container) Terminate(ctx context.Context) error {
	if c == nil || c.Container == nil {
		return nil
	}
	tc := c.Container
	c.Container = nil
	logger.From(ctx).Debug("terminating warp10 container", logger.InstanceID(c.id))
	return tc.Terminate(ctx)
}

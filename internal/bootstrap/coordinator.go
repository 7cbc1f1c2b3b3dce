// Package bootstrap secuencia el aprovisionamiento de credenciales de una
// instancia de Warp 10 cuando el orquestador avisa que está lista.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/warp10-fixture/internal/cryptokeys"
	"github.com/dropDatabas3/warp10-fixture/internal/instance"
	"github.com/dropDatabas3/warp10-fixture/internal/metrics"
	"github.com/dropDatabas3/warp10-fixture/internal/mint"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
	"github.com/dropDatabas3/warp10-fixture/internal/tokens"
	"go.uber.org/zap"
)

// ErrAlreadyStarted: OnReady se invoca una sola vez por instancia.
var ErrAlreadyStarted = errors.New("bootstrap: already started")

// Config parametriza un Coordinator.
type Config struct {
	Profile Profile

	// Script es el blob WarpScript a desplegar (requerido con mint.ShapeScript).
	Script []byte

	// AppName y Validity se pasan al launcher con mint.ShapeFlags.
	AppName  string
	Validity time.Duration

	// Invoker permite sobreescribir paths/usuario; nil usa mint.NewInvoker().
	Invoker *mint.Invoker

	// InstanceID solo se usa para logs.
	InstanceID string
}

// Coordinator es dueño exclusivo del estado, las claves y los tokens de una instancia.
// No es seguro para uso concurrente: el orquestador lo invoca una vez, desde un solo goroutine.
type Coordinator struct {
	inst    instance.Instance
	cfg     Config
	invoker *mint.Invoker

	state       State
	transitions []State
	err         error

	keys    cryptokeys.CryptoKeySet
	hasKeys bool
	store   *tokens.Store
}

// New crea un Coordinator en NotStarted.
func New(inst instance.Instance, cfg Config) *Coordinator {
	iv := cfg.Invoker
	if iv == nil {
		iv = mint.NewInvoker()
	}
	return &Coordinator{
		inst:        inst,
		cfg:         cfg,
		invoker:     iv,
		state:       NotStarted,
		transitions: []State{NotStarted},
	}
}

// OnReady corre el pipeline completo. Es el evento "container is ready".
func (c *Coordinator) OnReady(ctx context.Context) (err error) {
	if c.state != NotStarted {
		return ErrAlreadyStarted
	}

	log := logger.From(ctx).With(
		logger.Component("bootstrap"),
		logger.InstanceID(c.cfg.InstanceID),
		logger.String("profile", c.cfg.Profile.Name),
	)
	ctx = logger.ToContext(ctx, log)
	start := time.Now()

	defer func() {
		if err != nil {
			c.fail(err)
			log.Error("credential bootstrap failed", logger.State(c.state.String()), logger.Err(err))
		} else {
			log.Info("credential bootstrap completed",
				logger.State(c.state.String()),
				logger.Count(c.store.Set().Len()),
				logger.Duration(time.Since(start)),
			)
		}
		metrics.RecordBootstrap(err == nil)
	}()

	if c.cfg.Profile.ExtractKeys {
		if err := c.step(log, "extract_keys", func() error { return c.extractKeys(ctx, log) }); err != nil {
			return err
		}
		c.transition(KeysExtracted)
	}

	if c.cfg.Profile.Shape == mint.ShapeScript {
		if err := c.step(log, "deploy_script", func() error {
			return c.invoker.Deploy(ctx, c.inst, c.cfg.Script)
		}); err != nil {
			return err
		}
		c.transition(ScriptDeployed)
	}

	var res mint.Result
	if err := c.step(log, "mint", func() error {
		var err error
		res, err = c.invoker.Invoke(ctx, c.inst, mint.Request{
			Shape:    c.cfg.Profile.Shape,
			AppName:  c.cfg.AppName,
			Validity: c.cfg.Validity,
		})
		return err
	}); err != nil {
		var xerr *mint.ExitError
		if errors.As(err, &xerr) {
			metrics.RecordMintFailure(xerr.ExitCode)
		}
		return err
	}

	var set tokens.TokenSet
	if err := c.step(log, "parse", func() error {
		var err error
		set, err = tokens.Parse(res.Shape.Schema(), res.Stdout)
		return err
	}); err != nil {
		return err
	}

	c.store = tokens.NewStore(set)
	c.transition(TokensGenerated)
	for _, role := range []string{tokens.RoleRead, tokens.RoleWrite} {
		if _, ok := c.store.TokenForRole(role); !ok {
			log.Warn("minted payload has no token for role", logger.Role(role))
		}
	}
	return nil
}

func (c *Coordinator) extractKeys(ctx context.Context, log *zap.Logger) error {
	raw, err := c.inst.ReadFile(ctx, c.cfg.Profile.ConfigPath)
	if err != nil {
		return fmt.Errorf("read warp10 config %s: %w", c.cfg.Profile.ConfigPath, err)
	}

	keys := cryptokeys.Extract(ctx, string(raw))
	c.keys, c.hasKeys = keys, true

	if !keys.IsValid() {
		aes, _ := keys.AESTokenKey()
		app, _ := keys.SipHashAppKey()
		tok, _ := keys.SipHashTokenKey()
		log.Warn("crypto keys may be invalid",
			logger.Int("aes_token_key_len", len(aes)),
			logger.Int("siphash_app_key_len", len(app)),
			logger.Int("siphash_token_key_len", len(tok)),
		)
		return nil
	}
	log.Info("crypto keys extracted", logger.Path(c.cfg.Profile.ConfigPath))
	return nil
}

func (c *Coordinator) step(log *zap.Logger, name string, fn func() error) error {
	log = log.With(logger.Step(name))
	log.Debug("step started")
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.ObserveStep(name, elapsed)
	log.Debug("step finished", logger.Duration(elapsed), logger.Bool("ok", err == nil))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (c *Coordinator) transition(s State) {
	c.state = s
	c.transitions = append(c.transitions, s)
}

// fail descarta todo lo producido: un run fallido no expone datos parciales.
func (c *Coordinator) fail(err error) {
	c.err = err
	c.store = nil
	c.keys, c.hasKeys = cryptokeys.CryptoKeySet{}, false
	c.transition(Failed)
}

// State devuelve el estado actual.
func (c *Coordinator) State() State { return c.state }

// Transitions devuelve la secuencia de estados recorrida.
func (c *Coordinator) Transitions() []State {
	return append([]State(nil), c.transitions...)
}

// Err devuelve el error fatal si el estado es Failed.
func (c *Coordinator) Err() error { return c.err }

// ReadToken devuelve el token de lectura; ausente salvo en TokensGenerated.
func (c *Coordinator) ReadToken() (string, bool) {
	return c.tokenForRole(tokens.RoleRead)
}

// WriteToken devuelve el token de escritura; ausente salvo en TokensGenerated.
func (c *Coordinator) WriteToken() (string, bool) {
	return c.tokenForRole(tokens.RoleWrite)
}

// TokenForRole busca cualquier rol (case-insensitive).
func (c *Coordinator) TokenForRole(role string) (string, bool) {
	return c.tokenForRole(role)
}

func (c *Coordinator) tokenForRole(role string) (string, bool) {
	if c.state != TokensGenerated {
		return "", false
	}
	return c.store.TokenForRole(role)
}

// Tokens devuelve el TokenSet generado; ausente salvo en TokensGenerated.
func (c *Coordinator) Tokens() (tokens.TokenSet, bool) {
	if c.state != TokensGenerated {
		return tokens.TokenSet{}, false
	}
	return c.store.Set(), true
}

// CryptoKeys devuelve las claves extraídas (posiblemente inválidas).
// Ausente si el perfil no extrae claves o si el bootstrap no terminó bien.
func (c *Coordinator) CryptoKeys() (cryptokeys.CryptoKeySet, bool) {
	if c.state != TokensGenerated || !c.hasKeys {
		return cryptokeys.CryptoKeySet{}, false
	}
	return c.keys, true
}

// Package fixturepool comparte instancias de Warp 10 ya aprovisionadas entre
// tests del mismo proceso, una por clave (normalmente el tag de la imagen).
package fixturepool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/warp10-fixture/internal/metrics"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// ErrClosed: el pool ya pasó por CloseAll.
var ErrClosed = errors.New("fixturepool: closed")

// Fixture es lo mínimo que el pool necesita para liberar una instancia.
// Debe ser comparable (normalmente un puntero).
type Fixture interface {
	comparable
	Terminate(ctx context.Context) error
}

// Factory arranca y aprovisiona una instancia para key.
type Factory[F Fixture] func(ctx context.Context, key string) (F, error)

// Config configuración del pool.
type Config struct {
	// IdleTTL tiempo sin Get antes de terminar la instancia. 0 = nunca.
	IdleTTL time.Duration

	// CleanupInterval frecuencia del barrido de expirados. Default: IdleTTL/2 (mín. 1s).
	CleanupInterval time.Duration

	// TerminateTimeout límite para Terminate en evicciones. Default: 30s.
	TerminateTimeout time.Duration

	// OnStart callback cuando se crea una instancia nueva.
	OnStart func(key string)

	// OnTerminate callback cuando se termina una instancia (evicción o Close).
	OnTerminate func(key string, err error)
}

// Pool es thread-safe; usa singleflight para que Get concurrentes con la
// misma clave arranquen una sola instancia.
type Pool[F Fixture] struct {
	items   *gocache.Cache
	sf      singleflight.Group
	factory Factory[F]
	cfg     Config

	// mu serializa refresh, detach y alta de entradas.
	mu     sync.Mutex
	closed bool

	dmu      sync.Mutex
	detached map[string]F
}

// New crea un pool vacío.
func New[F Fixture](factory Factory[F], cfg Config) *Pool[F] {
	if cfg.TerminateTimeout <= 0 {
		cfg.TerminateTimeout = 30 * time.Second
	}
	ttl := gocache.NoExpiration
	cleanup := time.Duration(0)
	if cfg.IdleTTL > 0 {
		ttl = cfg.IdleTTL
		cleanup = cfg.CleanupInterval
		if cleanup <= 0 {
			cleanup = cfg.IdleTTL / 2
			if cleanup < time.Second {
				cleanup = time.Second
			}
		}
	}

	p := &Pool[F]{
		items:    gocache.New(ttl, cleanup),
		factory:  factory,
		cfg:      cfg,
		detached: map[string]F{},
	}
	p.items.OnEvicted(p.onEvicted)
	return p
}

// Get devuelve la instancia de key, arrancándola si no existe.
// Cada Get reinicia el reloj de inactividad.
func (p *Pool[F]) Get(ctx context.Context, key string) (F, error) {
	var zero F
	if p.isClosed() {
		return zero, ErrClosed
	}

	if f, ok := p.refresh(key); ok {
		return f, nil
	}

	result, err, _ := p.sf.Do(key, func() (interface{}, error) {
		// Double-check dentro del singleflight
		if v, ok := p.items.Get(key); ok {
			return v, nil
		}
		// Una entrada expirada sin barrer se pisaría sin terminarla.
		p.items.DeleteExpired()

		f, err := p.factory(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("start fixture %q: %w", key, err)
		}
		metrics.PoolFixtures.Inc()

		p.mu.Lock()
		closed := p.closed
		if !closed {
			p.items.SetDefault(key, f)
		}
		p.mu.Unlock()
		if closed {
			_ = p.terminate(ctx, key, f)
			return nil, ErrClosed
		}

		logger.From(ctx).Info("fixture started", logger.Component("fixturepool"), logger.Key(key))
		if p.cfg.OnStart != nil {
			p.cfg.OnStart(key)
		}
		return f, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(F), nil
}

// refresh devuelve la instancia de key y reinicia su reloj. Bajo mu para que
// un Close concurrente no vea reinsertada una instancia ya terminada.
func (p *Pool[F]) refresh(key string) (F, bool) {
	var zero F
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.items.Get(key)
	if !ok {
		return zero, false
	}
	p.items.SetDefault(key, v)
	return v.(F), true
}

// Has verifica si hay una instancia viva para key.
func (p *Pool[F]) Has(key string) bool {
	_, ok := p.items.Get(key)
	return ok
}

// Len cantidad de instancias vivas.
func (p *Pool[F]) Len() int {
	return len(p.items.Items())
}

// Close termina la instancia de key, si existe.
func (p *Pool[F]) Close(ctx context.Context, key string) error {
	f, ok := p.detach(key)
	if !ok {
		return nil
	}
	return p.terminate(ctx, key, f)
}

// CloseAll termina todas las instancias y rechaza Gets posteriores.
func (p *Pool[F]) CloseAll(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.items.DeleteExpired()
	var errs []error
	for key := range p.items.Items() {
		if err := p.Close(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// detach saca key del cache sin disparar la terminación asíncrona.
func (p *Pool[F]) detach(key string) (F, bool) {
	var zero F
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.items.Get(key)
	if !ok {
		return zero, false
	}
	f := v.(F)
	p.dmu.Lock()
	p.detached[key] = f
	p.dmu.Unlock()

	// Delete invoca onEvicted sincrónicamente; onEvicted no toma mu en este camino.
	p.items.Delete(key)
	return f, true
}

// onEvicted corre en el janitor de go-cache (expiración) o dentro de Delete.
func (p *Pool[F]) onEvicted(key string, v interface{}) {
	f := v.(F)
	// Camino de Close: detach ya tiene mu tomado.
	if p.claim(key, f) {
		return
	}

	// Entre la expiración y este callback un Get pudo reinsertarla, o un Close
	// pudo reclamarla.
	p.mu.Lock()
	cur, ok := p.items.Get(key)
	refreshed := ok && cur.(F) == f
	claimed := !refreshed && p.claim(key, f)
	p.mu.Unlock()
	if refreshed || claimed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.TerminateTimeout)
	defer cancel()
	logger.Named("fixturepool").Info("fixture idle, terminating", logger.Key(key))
	_ = p.terminate(ctx, key, f)
}

// claim consume la marca de detach de key si corresponde a f.
func (p *Pool[F]) claim(key string, f F) bool {
	p.dmu.Lock()
	defer p.dmu.Unlock()
	d, ok := p.detached[key]
	if !ok || d != f {
		return false
	}
	delete(p.detached, key)
	return true
}

func (p *Pool[F]) terminate(ctx context.Context, key string, f F) error {
	err := f.Terminate(ctx)
	metrics.PoolFixtures.Dec()
	if err != nil {
		err = fmt.Errorf("terminate fixture %q: %w", key, err)
		logger.From(ctx).Warn("fixture terminate failed", logger.Component("fixturepool"), logger.Key(key), logger.Err(err))
	}
	if p.cfg.OnTerminate != nil {
		p.cfg.OnTerminate(key, err)
	}
	return err
}

func (p *Pool[F]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

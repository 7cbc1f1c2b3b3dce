package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig: Fixture monta el endpoint de una instancia fija; Provider
// monta instancias bajo demanda por tag. Metrics es opcional.
type RouterConfig struct {
	Fixture  Fixture
	Provider Provider
	Metrics  stdhttp.Handler
}

func NewRouter(cfg RouterConfig) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(WithRequestID, WithRecover, WithLogging, WithMetrics)

	// Health
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Fixture != nil {
		h := &credentialsHandler{fx: cfg.Fixture}
		r.Get("/readyz", h.readyz)
		r.Get("/v1/credentials", h.credentials)
	}

	if cfg.Provider != nil {
		h := &fixturesHandler{p: cfg.Provider}
		r.Route("/v1/fixtures/{tag}", func(r chi.Router) {
			r.Get("/credentials", h.credentials)
			r.Delete("/", h.release)
		})
	}

	if cfg.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", cfg.Metrics)
	}
	return r
}

package http

import (
	"context"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
)

// Provider entrega (arrancando si hace falta) la instancia de un tag.
type Provider interface {
	Get(ctx context.Context, tag string) (Fixture, error)
	Close(ctx context.Context, tag string) error
}

var tagPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,127}$`)

type fixturesHandler struct {
	p Provider
}

func (h *fixturesHandler) tag(w http.ResponseWriter, r *http.Request) (string, bool) {
	tag := chi.URLParam(r, "tag")
	if !tagPattern.MatchString(tag) {
		WriteError(w, http.StatusBadRequest, "invalid_tag", "tag must match "+tagPattern.String())
		return "", false
	}
	return tag, true
}

// GET /v1/fixtures/{tag}/credentials
func (h *fixturesHandler) credentials(w http.ResponseWriter, r *http.Request) {
	tag, ok := h.tag(w, r)
	if !ok {
		return
	}
	fx, err := h.p.Get(r.Context(), tag)
	if err != nil {
		logger.FromWithFields(r.Context(), logger.Op("fixture_credentials"), logger.Key(tag)).
			Error("fixture unavailable", logger.Err(err))
		WriteError(w, http.StatusBadGateway, "fixture_unavailable", err.Error())
		return
	}
	(&credentialsHandler{fx: fx}).credentials(w, r)
}

// DELETE /v1/fixtures/{tag}
func (h *fixturesHandler) release(w http.ResponseWriter, r *http.Request) {
	tag, ok := h.tag(w, r)
	if !ok {
		return
	}
	if err := h.p.Close(r.Context(), tag); err != nil {
		WriteError(w, http.StatusInternalServerError, "terminate_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/warp10-fixture/internal/bootstrap"
	"github.com/dropDatabas3/warp10-fixture/internal/cryptokeys"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
)

// Fixture es la vista de una instancia que necesita el endpoint.
type Fixture interface {
	ID() string
	State() bootstrap.State
	ReadToken() (string, bool)
	WriteToken() (string, bool)
	CryptoKeys() (cryptokeys.CryptoKeySet, bool)
	HTTPHostAddress(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Protocol() string
}

type CredentialsResponse struct {
	ID         string         `json:"id"`
	State      string         `json:"state"`
	Address    string         `json:"address"`
	URL        string         `json:"url"`
	Protocol   string         `json:"protocol"`
	Tokens     TokensDTO      `json:"tokens"`
	CryptoKeys *CryptoKeysDTO `json:"crypto_keys,omitempty"`
}

type TokensDTO struct {
	Read  string `json:"read,omitempty"`
	Write string `json:"write,omitempty"`
}

type CryptoKeysDTO struct {
	Valid           bool   `json:"valid"`
	AESTokenKey     string `json:"aes_token_key,omitempty"`
	SipHashAppKey   string `json:"siphash_app_key,omitempty"`
	SipHashTokenKey string `json:"siphash_token_key,omitempty"`
}

type credentialsHandler struct {
	fx Fixture
}

func (h *credentialsHandler) readyz(w http.ResponseWriter, _ *http.Request) {
	st := h.fx.State()
	if st != bootstrap.TokensGenerated {
		WriteError(w, http.StatusServiceUnavailable, "not_ready", "state "+st.String())
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// GET /v1/credentials
func (h *credentialsHandler) credentials(w http.ResponseWriter, r *http.Request) {
	st := h.fx.State()
	if st != bootstrap.TokensGenerated {
		WriteError(w, http.StatusServiceUnavailable, "not_ready", "state "+st.String())
		return
	}

	addr, err := h.fx.HTTPHostAddress(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("resolve fixture address", logger.Err(err))
		WriteError(w, http.StatusBadGateway, "address_unavailable", err.Error())
		return
	}
	url, err := h.fx.URL(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, "address_unavailable", err.Error())
		return
	}

	resp := CredentialsResponse{
		ID:       h.fx.ID(),
		State:    st.String(),
		Address:  addr,
		URL:      url,
		Protocol: h.fx.Protocol(),
	}
	resp.Tokens.Read, _ = h.fx.ReadToken()
	resp.Tokens.Write, _ = h.fx.WriteToken()

	if keys, ok := h.fx.CryptoKeys(); ok {
		dto := &CryptoKeysDTO{Valid: keys.IsValid()}
		dto.AESTokenKey, _ = keys.AESTokenKey()
		dto.SipHashAppKey, _ = keys.SipHashAppKey()
		dto.SipHashTokenKey, _ = keys.SipHashTokenKey()
		resp.CryptoKeys = dto
	}
	WriteJSON(w, http.StatusOK, resp)
}

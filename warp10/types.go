package warp10

import (
	"errors"

	"github.com/dropDatabas3/warp10-fixture/internal/bootstrap"
	"github.com/dropDatabas3/warp10-fixture/internal/cryptokeys"
	"github.com/dropDatabas3/warp10-fixture/internal/tokens"
)

// ErrNotReady: el bootstrap de credenciales no terminó (o falló).
var ErrNotReady = errors.New("warp10: credentials not ready")

type (
	// State es el estado del bootstrap de credenciales.
	State = bootstrap.State
	// Profile agrupa el comportamiento dependiente de la versión de la imagen.
	Profile = bootstrap.Profile
	// CryptoKeySet son las claves hex leídas de la configuración de la instancia.
	CryptoKeySet = cryptokeys.CryptoKeySet
	// TokenSet son los tokens generados, en orden de salida.
	TokenSet = tokens.TokenSet
	// TokenRecord es un token con su rol.
	TokenRecord = tokens.TokenRecord
)

const (
	NotStarted      = bootstrap.NotStarted
	KeysExtracted   = bootstrap.KeysExtracted
	ScriptDeployed  = bootstrap.ScriptDeployed
	TokensGenerated = bootstrap.TokensGenerated
	Failed          = bootstrap.Failed
)

// CurrentProfile: Warp 10 3.x (claves + tokengen con script).
func CurrentProfile() Profile { return bootstrap.CurrentProfile() }

// LegacyProfile: Warp 10 2.x (worf por flags, sin claves).
func LegacyProfile() Profile { return bootstrap.LegacyProfile() }

// ProfileForTag elige el perfil por la versión mayor del tag.
func ProfileForTag(tag string) Profile { return bootstrap.ProfileForTag(tag) }

// Credentials es una foto de todo lo que un test necesita para hablar con la instancia.
type Credentials struct {
	ID         string
	Address    string
	URL        string
	Protocol   string
	ReadToken  string
	WriteToken string
	// Keys solo es válido si HasKeys.
	Keys    CryptoKeySet
	HasKeys bool
}

// Env devuelve las credenciales como variables de entorno WARP10_*.
func (c Credentials) Env() map[string]string {
	env := map[string]string{
		"WARP10_ID":          c.ID,
		"WARP10_ADDRESS":     c.Address,
		"WARP10_URL":         c.URL,
		"WARP10_PROTOCOL":    c.Protocol,
		"WARP10_READ_TOKEN":  c.ReadToken,
		"WARP10_WRITE_TOKEN": c.WriteToken,
	}
	if c.HasKeys {
		if v, ok := c.Keys.AESTokenKey(); ok {
			env["WARP10_AES_TOKEN_KEY"] = v
		}
		if v, ok := c.Keys.SipHashAppKey(); ok {
			env["WARP10_SIPHASH_APP_KEY"] = v
		}
		if v, ok := c.Keys.SipHashTokenKey(); ok {
			env["WARP10_SIPHASH_TOKEN_KEY"] = v
		}
	}
	for k, v := range env {
		if v == "" {
			delete(env, k)
		}
	}
	return env
}

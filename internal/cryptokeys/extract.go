package cryptokeys

import (
	"context"
	"errors"
	"regexp"

	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
)

// ConfigPath es donde la imagen 3.x persiste las claves generadas en el primer arranque.
const ConfigPath = "/opt/warp10/etc/conf.d/99-init.conf"

// ErrKeyAbsent se devuelve al decodificar una clave que no fue encontrada.
var ErrKeyAbsent = errors.New("crypto key absent")

// Nombres de las propiedades en la configuración de Warp 10.
const (
	PropAESToken     = "warp.aes.token"
	PropSipHashApp   = "warp.hash.app"
	PropSipHashToken = "warp.hash.token"
)

var (
	aesTokenRE     = regexp.MustCompile(`warp\.aes\.token\s*=\s*hex:([0-9a-fA-F]+)`)
	sipHashAppRE   = regexp.MustCompile(`warp\.hash\.app\s*=\s*hex:([0-9a-fA-F]+)`)
	sipHashTokenRE = regexp.MustCompile(`warp\.hash\.token\s*=\s*hex:([0-9a-fA-F]+)`)
)

// Extract busca cada clave de forma independiente en content.
// Una clave faltante queda ausente y se loguea un warning; nunca es un error.
func Extract(ctx context.Context, content string) CryptoKeySet {
	log := logger.From(ctx).With(logger.Component("cryptokeys"))

	find := func(re *regexp.Regexp, name string) string {
		m := re.FindStringSubmatch(content)
		if m == nil {
			log.Warn("crypto key not found in config", logger.Key(name))
			return ""
		}
		return m[1]
	}

	return New(
		find(aesTokenRE, PropAESToken),
		find(sipHashAppRE, PropSipHashApp),
		find(sipHashTokenRE, PropSipHashToken),
	)
}

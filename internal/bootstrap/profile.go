package bootstrap

import (
	"strconv"
	"strings"

	"github.com/dropDatabas3/warp10-fixture/internal/cryptokeys"
	"github.com/dropDatabas3/warp10-fixture/internal/mint"
)

// Profile agrupa lo que depende de la versión de la imagen.
type Profile struct {
	Name string
	// ExtractKeys: la imagen persiste las claves en ConfigPath al arrancar.
	ExtractKeys bool
	ConfigPath  string
	Shape       mint.Shape
}

// CurrentProfile corresponde a Warp 10 3.x: claves en 99-init.conf + tokengen con script.
func CurrentProfile() Profile {
	return Profile{
		Name:        "current",
		ExtractKeys: true,
		ConfigPath:  cryptokeys.ConfigPath,
		Shape:       mint.ShapeScript,
	}
}

// LegacyProfile corresponde a Warp 10 2.x: worf por flags, sin claves legibles.
func LegacyProfile() Profile {
	return Profile{
		Name:  "legacy",
		Shape: mint.ShapeFlags,
	}
}

// ProfileForTag elige el perfil por la versión mayor del tag ("2.7.5",
// "3.4.1-ubuntu-ci"). Tags no numéricos ("latest", "ci") usan el actual.
func ProfileForTag(tag string) Profile {
	if major, ok := majorVersion(tag); ok && major < 3 {
		return LegacyProfile()
	}
	return CurrentProfile()
}

func majorVersion(tag string) (int, bool) {
	t := strings.TrimPrefix(strings.TrimSpace(tag), "v")
	end := strings.IndexFunc(t, func(r rune) bool { return r < '0' || r > '9' })
	if end == 0 {
		return 0, false
	}
	if end > 0 {
		t = t[:end]
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, false
	}
	return n, true
}

package warp10

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"text/template"
	"time"

	"github.com/google/uuid"
)

//go:embed tokengen.mc2.tmpl
var tokenScriptTemplate string

var tokenScript = template.Must(template.New("tokengen.mc2").Parse(tokenScriptTemplate))

// appNamePattern: el nombre va literal dentro de un string WarpScript y en argv.
var appNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// RenderTokenScript genera el script WarpScript por defecto: un token de
// lectura y uno de escritura para appName, válidos por validity.
func RenderTokenScript(appName string, validity time.Duration) ([]byte, error) {
	if !appNamePattern.MatchString(appName) {
		return nil, fmt.Errorf("warp10: invalid application name %q", appName)
	}
	if validity < time.Millisecond {
		return nil, fmt.Errorf("warp10: token validity must be at least 1ms, got %s", validity)
	}

	var buf bytes.Buffer
	err := tokenScript.Execute(&buf, struct {
		AppName        string
		Owner          string
		ValidityMillis int64
	}{
		AppName:        appName,
		Owner:          uuid.NewString(),
		ValidityMillis: validity.Milliseconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("render token script: %w", err)
	}
	return buf.Bytes(), nil
}

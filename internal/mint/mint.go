// Package mint ejecuta la generación de tokens dentro de una instancia de Warp 10.
//
// Hay dos formas de invocación según la versión de la imagen:
//
//   - Script (3.x): se copia un script WarpScript a ScriptPath y se corre
//     `warp10.sh tokengen - < ScriptPath`. La salida es un array JSON.
//   - Flags (2.x): `warp10-standalone.sh worf <app> <ttl ms>`, sin script.
//     La salida es un único objeto JSON.
//
// La forma es una propiedad estática de la versión; la elige el caller.
package mint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/warp10-fixture/internal/instance"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
	"github.com/dropDatabas3/warp10-fixture/internal/tokens"
)

// Defaults de la imagen oficial warp10io/warp10.
const (
	DefaultServiceUser    = "warp10"
	DefaultScriptPath     = "/opt/warp10/tokens/tokengen.mc2"
	DefaultScriptLauncher = "/opt/warp10/bin/warp10.sh"
	DefaultFlagsLauncher  = "/opt/warp10/bin/warp10-standalone.sh"
	scriptMode            = 0o644
)

// Shape es la forma de invocación.
type Shape int

const (
	ShapeScript Shape = iota + 1
	ShapeFlags
)

func (s Shape) String() string {
	switch s {
	case ShapeScript:
		return "script"
	case ShapeFlags:
		return "flags"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Schema devuelve el esquema de salida que produce esta forma.
func (s Shape) Schema() tokens.Schema {
	if s == ShapeFlags {
		return tokens.SchemaLegacy
	}
	return tokens.SchemaCurrent
}

var (
	// ErrScriptRequired: la forma script necesita un blob no vacío.
	ErrScriptRequired = errors.New("mint: token script is required for the script shape")
	// ErrUnknownShape: Shape fuera de rango.
	ErrUnknownShape = errors.New("mint: unknown invocation shape")
)

// ExitError es fatal: el proceso corrió y terminó con código != 0.
// Conserva ambos streams para diagnosticar sin re-ejecutar.
type ExitError struct {
	Shape    Shape
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("warp10 token generation (%s) exited with code %d; stdout: %q; stderr: %q",
		e.Shape, e.ExitCode, strings.TrimSpace(e.Stdout), strings.TrimSpace(e.Stderr))
}

// Invoker despliega y ejecuta la generación de tokens.
type Invoker struct {
	// User es la identidad no-root bajo la que corre el launcher.
	User string
	// ScriptPath es donde se deposita el script (solo ShapeScript).
	ScriptPath string
	// ScriptLauncher y FlagsLauncher son los binarios de cada forma.
	ScriptLauncher string
	FlagsLauncher  string
}

// NewInvoker devuelve un Invoker con los paths de la imagen oficial.
func NewInvoker() *Invoker {
	return &Invoker{
		User:           DefaultServiceUser,
		ScriptPath:     DefaultScriptPath,
		ScriptLauncher: DefaultScriptLauncher,
		FlagsLauncher:  DefaultFlagsLauncher,
	}
}

// Deploy copia script a ScriptPath. Es la única escritura en la instancia.
func (iv *Invoker) Deploy(ctx context.Context, inst instance.Instance, script []byte) error {
	if len(script) == 0 {
		return ErrScriptRequired
	}
	if err := inst.WriteFile(ctx, script, iv.ScriptPath, scriptMode); err != nil {
		return fmt.Errorf("deploy token script: %w", err)
	}
	logger.From(ctx).Debug("token script deployed",
		logger.Component("mint"), logger.Path(iv.ScriptPath), logger.Int("bytes", len(script)))
	return nil
}

// Request parametriza una invocación.
type Request struct {
	Shape Shape
	// AppName y Validity solo aplican a ShapeFlags; con ShapeScript los fija el script.
	AppName  string
	Validity time.Duration
}

// Result es una invocación exitosa (exit code 0).
type Result struct {
	Shape  Shape
	Stdout []byte
	Stderr []byte
}

// Command devuelve el argv que se ejecutará para req.
func (iv *Invoker) Command(req Request) ([]string, error) {
	switch req.Shape {
	case ShapeScript:
		return []string{"sh", "-c", fmt.Sprintf("%s tokengen - < %s", iv.ScriptLauncher, iv.ScriptPath)}, nil
	case ShapeFlags:
		if strings.TrimSpace(req.AppName) == "" {
			return nil, errors.New("mint: application name is required for the flags shape")
		}
		if req.Validity <= 0 {
			return nil, errors.New("mint: validity must be positive for the flags shape")
		}
		return []string{iv.FlagsLauncher, "worf", req.AppName, strconv.FormatInt(req.Validity.Milliseconds(), 10)}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownShape, int(req.Shape))
	}
}

// Invoke ejecuta la generación. Cualquier exit code != 0 devuelve *ExitError.
func (iv *Invoker) Invoke(ctx context.Context, inst instance.Instance, req Request) (Result, error) {
	cmd, err := iv.Command(req)
	if err != nil {
		return Result{}, err
	}
	log := logger.From(ctx).With(logger.Component("mint"), logger.String("shape", req.Shape.String()))

	res, err := inst.Exec(ctx, iv.User, cmd...)
	if err != nil {
		return Result{}, fmt.Errorf("launch token generation: %w", err)
	}
	if res.ExitCode != 0 {
		xerr := &ExitError{
			Shape:    req.Shape,
			ExitCode: res.ExitCode,
			Stdout:   string(res.Stdout),
			Stderr:   string(res.Stderr),
		}
		log.Error("token generation failed",
			logger.ExitCode(res.ExitCode),
			logger.String("stdout", xerr.Stdout),
			logger.String("stderr", xerr.Stderr),
		)
		return Result{}, xerr
	}
	if len(res.Stderr) > 0 {
		log.Debug("token generation wrote to stderr", logger.String("stderr", string(res.Stderr)))
	}
	return Result{Shape: req.Shape, Stdout: res.Stdout, Stderr: res.Stderr}, nil
}

// Package instance define el borde entre el pipeline de credenciales y el
// orquestador de contenedores: leer un archivo, escribir un archivo y
// ejecutar un comando dentro de la instancia.
package instance

import (
	"context"
	"errors"
	"fmt"
)

// ErrIO marca fallas de E/S contra la instancia (no se pudo leer, copiar o lanzar).
var ErrIO = errors.New("instance io")

// ExecResult es el resultado de un proceso que llegó a ejecutarse.
type ExecResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Instance es lo único que el núcleo consume del orquestador.
type Instance interface {
	// ReadFile devuelve el contenido de path; error que envuelve ErrIO si no se puede leer.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile copia blob a remotePath con el modo dado.
	WriteFile(ctx context.Context, blob []byte, remotePath string, mode int64) error
	// Exec ejecuta cmd como user. Un exit code != 0 NO es error: se reporta en ExecResult.
	Exec(ctx context.Context, user string, cmd ...string) (ExecResult, error)
}

// IOError envuelve err como ErrIO con la operación y el path/comando.
func IOError(op, target string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrIO, op, target, err)
}

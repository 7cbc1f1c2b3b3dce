// Package instancetest provee un Instance en memoria para tests.
package instancetest

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/warp10-fixture/internal/instance"
)

// Call registra un Exec.
type Call struct {
	User string
	Cmd  []string
}

// Write registra un WriteFile.
type Write struct {
	Path string
	Blob []byte
	Mode int64
}

// Fake responde a ReadFile desde Files y a Exec con Result/ExecErr
// (o OnExec si está definido). No es seguro para uso concurrente.
type Fake struct {
	Files    map[string][]byte
	ReadErr  error
	WriteErr error

	Result  instance.ExecResult
	ExecErr error
	OnExec  func(user string, cmd []string) (instance.ExecResult, error)

	Reads  []string
	Writes []Write
	Execs  []Call
}

// New crea un Fake vacío.
func New() *Fake {
	return &Fake{Files: map[string][]byte{}}
}

func (f *Fake) ReadFile(_ context.Context, path string) ([]byte, error) {
	f.Reads = append(f.Reads, path)
	if f.ReadErr != nil {
		return nil, instance.IOError("read", path, f.ReadErr)
	}
	b, ok := f.Files[path]
	if !ok {
		return nil, instance.IOError("read", path, errors.New("no such file or directory"))
	}
	return b, nil
}

func (f *Fake) WriteFile(_ context.Context, blob []byte, remotePath string, mode int64) error {
	if f.WriteErr != nil {
		return instance.IOError("write", remotePath, f.WriteErr)
	}
	cp := append([]byte(nil), blob...)
	f.Writes = append(f.Writes, Write{Path: remotePath, Blob: cp, Mode: mode})
	if f.Files == nil {
		f.Files = map[string][]byte{}
	}
	f.Files[remotePath] = cp
	return nil
}

func (f *Fake) Exec(_ context.Context, user string, cmd ...string) (instance.ExecResult, error) {
	f.Execs = append(f.Execs, Call{User: user, Cmd: append([]string(nil), cmd...)})
	if f.OnExec != nil {
		return f.OnExec(user, cmd)
	}
	if f.ExecErr != nil {
		return instance.ExecResult{}, instance.IOError("exec", strings.Join(cmd, " "), f.ExecErr)
	}
	return f.Result, nil
}

var _ instance.Instance = (*Fake)(nil)

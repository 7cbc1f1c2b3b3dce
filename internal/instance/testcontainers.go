package instance

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/testcontainers/testcontainers-go"
	tcexec "github.com/testcontainers/testcontainers-go/exec"
)

// Container adapta un testcontainers.Container a Instance.
type Container struct {
	c testcontainers.Container
}

// FromContainer envuelve c.
func FromContainer(c testcontainers.Container) *Container {
	return &Container{c: c}
}

// ReadFile hace `cat path` dentro del contenedor; exit != 0 es un error de E/S
// que incluye el stderr capturado.
func (a *Container) ReadFile(ctx context.Context, path string) ([]byte, error) {
	res, err := a.Exec(ctx, "", "cat", path)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, IOError("read", path, fmt.Errorf("cat exited with code %d: %s",
			res.ExitCode, strings.TrimSpace(string(res.Stderr))))
	}
	return res.Stdout, nil
}

// WriteFile usa CopyToContainer.
func (a *Container) WriteFile(ctx context.Context, blob []byte, remotePath string, mode int64) error {
	if err := a.c.CopyToContainer(ctx, blob, remotePath, mode); err != nil {
		return IOError("write", remotePath, err)
	}
	return nil
}

// Exec corre cmd y separa stdout/stderr del stream multiplexado de Docker.
func (a *Container) Exec(ctx context.Context, user string, cmd ...string) (ExecResult, error) {
	var opts []tcexec.ProcessOption
	if user != "" {
		opts = append(opts, tcexec.WithUser(user))
	}

	code, reader, err := a.c.Exec(ctx, cmd, opts...)
	if err != nil {
		return ExecResult{}, IOError("exec", strings.Join(cmd, " "), err)
	}

	var stdout, stderr bytes.Buffer
	if reader != nil {
		if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
			return ExecResult{}, IOError("exec output", strings.Join(cmd, " "), err)
		}
	}

	return ExecResult{
		ExitCode: code,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}, nil
}

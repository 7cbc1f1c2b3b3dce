// Package atomicwrite escribe los artefactos del fixture (env file con
// credenciales) de forma atómica: un lector nunca ve un archivo a medias.
// Es Windows-safe: si rename falla, intenta remove+rename (preserva lo viejo si falla).
package atomicwrite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// SecretPerm es el modo para archivos que contienen tokens o claves.
const SecretPerm fs.FileMode = 0o600

// WriteEnv serializa vars como KEY="value" (orden estable) y lo escribe
// atómicamente en path con SecretPerm.
func WriteEnv(path string, vars map[string]string) error {
	content, err := godotenv.Marshal(vars)
	if err != nil {
		return fmt.Errorf("marshal env: %w", err)
	}
	return AtomicWriteFile(path, []byte(content+"\n"), SecretPerm)
}

// ReadEnv lee un env file escrito por WriteEnv.
func ReadEnv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}

// AtomicWriteFile escribe data a path de forma atómica.
// Pasos: write tmp → Sync → Close → Chmod → Rename (con fallback remove+rename).
func AtomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	// Usar CreateTemp para evitar colisiones
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	// Cleanup en caso de error
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	// Set perms antes del rename: el env file nunca queda legible por otros.
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}

	// Try rename; si falla (Windows con archivo bloqueado), try remove+rename
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}

	return nil
}

package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - FIXTURE
// =================================================================================

// InstanceID identifica una instancia de Warp 10 durante toda su vida.
func InstanceID(v string) zap.Field {
	return zap.String("instance_id", v)
}

// Image crea un campo para la imagen (repo:tag) del contenedor.
func Image(v string) zap.Field {
	return zap.String("image", v)
}

// Step crea un campo para el paso del bootstrap en curso.
func Step(v string) zap.Field {
	return zap.String("step", v)
}

// State crea un campo para el estado del bootstrap.
func State(v string) zap.Field {
	return zap.String("state", v)
}

// Role crea un campo para el rol de un token (ReadToken, WriteToken...).
func Role(v string) zap.Field {
	return zap.String("role", v)
}

// ExitCode crea un campo para el código de salida de un exec.
func ExitCode(v int) zap.Field {
	return zap.Int("exit_code", v)
}

// Path crea un campo para una ruta dentro de la instancia.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Addr crea un campo para una dirección host:port.
func Addr(v string) zap.Field {
	return zap.String("addr", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Key crea un campo genérico para una clave.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

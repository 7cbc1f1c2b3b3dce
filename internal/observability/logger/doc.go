// Package logger provides the zap logger shared by the fixture, the bootstrap
// pipeline and the CLI.
//
// # Design Decisions
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada fixture lleva su propio logger "scoped" con
//     instance_id e image sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Tests: Replace() permite inyectar un logger observado o zap.NewNop().
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   os.Getenv("LOG_ENV"),   // "dev" o "prod"
//	    Level: os.Getenv("LOG_LEVEL"), // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// Dentro del pipeline (con contexto):
//
//	log := logger.From(ctx)
//	log.Warn("crypto key not found", logger.Key("warp.aes.token"))
package logger

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Métricas del bootstrap de credenciales y del pool de fixtures. Viven en un
// paquete aparte para que bootstrap, fixturepool y http no se importen entre sí.

var (
	BootstrapTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warp10_bootstrap_total",
		Help: "Bootstraps de credenciales por resultado",
	}, []string{"result"}) // result: success|failed

	BootstrapStepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warp10_bootstrap_step_duration_seconds",
		Help:    "Duración de cada paso del bootstrap",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"step"})

	MintFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warp10_token_mint_failures_total",
		Help: "Generaciones de tokens que terminaron con exit code != 0",
	}, []string{"exit_code"})

	PoolFixtures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "warp10_pool_fixtures",
		Help: "Fixtures compartidos vivos en el pool",
	})
)

// Register registra las métricas en reg (o el default si es nil).
// Registrar dos veces no es un error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{BootstrapTotal, BootstrapStepDuration, MintFailures, PoolFixtures} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// ObserveStep registra la duración de un paso.
func ObserveStep(step string, d time.Duration) {
	BootstrapStepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// RecordBootstrap cuenta un bootstrap terminado.
func RecordBootstrap(success bool) {
	result := "success"
	if !success {
		result = "failed"
	}
	BootstrapTotal.WithLabelValues(result).Inc()
}

// RecordMintFailure cuenta una generación fallida por exit code.
func RecordMintFailure(exitCode int) {
	MintFailures.WithLabelValues(strconv.Itoa(exitCode)).Inc()
}

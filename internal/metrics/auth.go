// Package metrics expone los contadores Prometheus del dominio auth.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	authOnce sync.Once

	loginsTotal      *prometheus.CounterVec
	refreshesTotal   *prometheus.CounterVec
	revocationsTotal *prometheus.CounterVec
	lockoutsTotal    prometheus.Counter
	resetsTotal      *prometheus.CounterVec
)

// RegisterAuth registra los contadores del flujo de autenticación.
// Idempotente: los duplicados se ignoran.
func RegisterAuth(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	authOnce.Do(func() {
		loginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Intentos de login por resultado",
		}, []string{"result", "method"}) // result: ok|invalid|locked|error; method: password|google|microsoft

		refreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Renovaciones de access token por resultado",
		}, []string{"result"}) // result: ok|invalid|error

		revocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_revocations_total",
			Help: "Refresh tokens revocados por origen",
		}, []string{"reason"}) // reason: logout|logout_all|rotate|reset|session

		lockoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_lockouts_total",
			Help: "Cuentas bloqueadas por exceso de fallos de login",
		})

		resetsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_password_resets_total",
			Help: "Flujo de reset de contraseña por etapa",
		}, []string{"stage"}) // stage: requested|confirmed

		for _, c := range []prometheus.Collector{
			loginsTotal, refreshesTotal, revocationsTotal, lockoutsTotal, resetsTotal,
		} {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					// métricas nunca tumban el server
					continue
				}
			}
		}
	})
}

// Las funciones Observe* son no-op hasta que RegisterAuth corra.

func ObserveLogin(result, method string) {
	if loginsTotal != nil {
		loginsTotal.WithLabelValues(result, method).Inc()
	}
}

func ObserveRefresh(result string) {
	if refreshesTotal != nil {
		refreshesTotal.WithLabelValues(result).Inc()
	}
}

func ObserveRevocation(reason string, n int) {
	if revocationsTotal != nil && n > 0 {
		revocationsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

func ObserveLockout() {
	if lockoutsTotal != nil {
		lockoutsTotal.Inc()
	}
}

func ObserveReset(stage string) {
	if resetsTotal != nil {
		resetsTotal.WithLabelValues(stage).Inc()
	}
}

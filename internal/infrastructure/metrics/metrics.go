// Package metrics exposes prometheus collectors on a dedicated registry so
// the /metrics endpoint carries only this service's series.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	registry *prometheus.Registry

	verifyOutcomes *prometheus.CounterVec
	revealOutcomes *prometheus.CounterVec
	claimOutcomes  *prometheus.CounterVec
	sweepsTotal    *prometheus.CounterVec
	chainDuration  *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	verify := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sealpay_verify_outcomes_total",
		Help: "Verify call outcomes by resulting status or error kind",
	}, []string{"outcome"})

	reveal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sealpay_reveal_outcomes_total",
		Help: "Reveal call outcomes by result or error kind",
	}, []string{"outcome"})

	claim := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sealpay_claim_outcomes_total",
		Help: "Claim call outcomes by result or error kind",
	}, []string{"outcome"})

	sweeps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sealpay_sweep_transitions_total",
		Help: "Records transitioned to expired by the sweeper, per store",
	}, []string{"store"})

	chain := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sealpay_chain_call_duration_seconds",
		Help:    "Duration of chain client calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"currency", "method"})

	r := prometheus.NewRegistry()
	r.MustRegister(verify, reveal, claim, sweeps, chain)

	return &Registry{
		registry:       r,
		verifyOutcomes: verify,
		revealOutcomes: reveal,
		claimOutcomes:  claim,
		sweepsTotal:    sweeps,
		chainDuration:  chain,
	}
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Registry) IncVerify(outcome string) {
	m.verifyOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Registry) IncReveal(outcome string) {
	m.revealOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Registry) IncClaim(outcome string) {
	m.claimOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Registry) AddSweeps(store string, count int) {
	if count > 0 {
		m.sweepsTotal.WithLabelValues(store).Add(float64(count))
	}
}

func (m *Registry) ObserveChainCall(currency, method string, d time.Duration) {
	m.chainDuration.WithLabelValues(currency, method).Observe(d.Seconds())
}

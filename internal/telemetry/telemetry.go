// Package telemetry is the ambient observability surface: a small
// prometheus registry fed by the orchestrator's tick, plus a
// gorilla/mux router exposing /healthz and /metrics. Grounded on the
// teacher's internal/interfaces/http (MetricsRegistry, HealthHandler)
// — trimmed to the handful of gauges/counters spec.md §7 asks the
// orchestrator to surface ("logs and counts them... through the
// snapshot"), since full REST transport is out of scope per spec.md §1.
package telemetry

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seltra-labs/amm-core/internal/net/circuit"
	"github.com/seltra-labs/amm-core/internal/oracle"
)

// Registry holds every prometheus collector this engine exposes.
type Registry struct {
	reg *prometheus.Registry

	swapsOK            prometheus.Counter
	swapsFailed        prometheus.Counter
	rebalancesApplied  prometheus.Counter
	rebalancesRejected prometheus.Counter
	oracleRejections   prometheus.Counter
	volatility         prometheus.Gauge
	regime             *prometheus.GaugeVec
	breakerOpen        *prometheus.GaugeVec

	startedAt time.Time
}

// NewRegistry constructs and registers the collector set.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		swapsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seltra_swaps_ok_total", Help: "Successful swaps delivered by the orchestrator.",
		}),
		swapsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seltra_swaps_failed_total", Help: "Swaps rejected by PoolEngine.",
		}),
		rebalancesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seltra_rebalances_applied_total", Help: "Rebalance proposals applied to the pool.",
		}),
		rebalancesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seltra_rebalances_rejected_total", Help: "Rebalance proposals rejected by validation or cooldown.",
		}),
		oracleRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seltra_oracle_rejections_total", Help: "Price updates rejected by the volatility oracle.",
		}),
		volatility: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seltra_volatility_scaled", Help: "Current volatility estimate, scale V=1e6.",
		}),
		regime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "seltra_regime", Help: "1 for the currently active regime, 0 otherwise.",
		}, []string{"regime"}),
		breakerOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "seltra_chain_breaker_open", Help: "1 if the ChainAdapter circuit breaker for a wallet kind is open.",
		}, []string{"wallet_kind"}),
		startedAt: time.Now(),
	}
	reg.MustRegister(r.swapsOK, r.swapsFailed, r.rebalancesApplied, r.rebalancesRejected,
		r.oracleRejections, r.volatility, r.regime, r.breakerOpen)
	return r
}

// SwapOK, SwapFailed, RebalanceApplied, RebalanceRejected, and
// OracleRejected are the orchestrator's per-event hooks — the
// MetricsSink interface in package orchestrator.
func (r *Registry) SwapOK()            { r.swapsOK.Inc() }
func (r *Registry) SwapFailed()        { r.swapsFailed.Inc() }
func (r *Registry) RebalanceApplied()  { r.rebalancesApplied.Inc() }
func (r *Registry) RebalanceRejected() { r.rebalancesRejected.Inc() }
func (r *Registry) OracleRejected()    { r.oracleRejections.Inc() }

// Observe records the oracle's current volatility/regime, called once
// per tick.
func (r *Registry) Observe(volatility uint64, regime oracle.Regime) {
	r.volatility.Set(float64(volatility))
	for _, tier := range []oracle.Regime{oracle.UltraLow, oracle.Low, oracle.Medium, oracle.High, oracle.Extreme} {
		v := 0.0
		if tier == regime {
			v = 1.0
		}
		r.regime.WithLabelValues(tier.String()).Set(v)
	}
}

// ObserveBreaker records a ChainAdapter breaker's state for a wallet
// kind.
func (r *Registry) ObserveBreaker(walletKind string, state circuit.State) {
	v := 0.0
	if state == circuit.StateOpen {
		v = 1.0
	}
	r.breakerOpen.WithLabelValues(walletKind).Set(v)
}

// healthResponse is the /healthz payload — intentionally minimal, this
// is a liveness probe, not the engine's operational snapshot (that is
// exposed by Orchestrator.GetStatus through the CLI, not HTTP).
type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
}

// Router builds the /healthz and /metrics mux, the only HTTP surface
// this repository exposes (spec.md §1 scopes the real transport layer
// out of the core).
func (r *Registry) Router() *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", r.handleHealthz).Methods(http.MethodGet)
	return router
}

func (r *Registry) handleHealthz(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(r.startedAt).Seconds()),
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
	})
}

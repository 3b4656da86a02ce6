package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seltra-labs/amm-core/internal/net/circuit"
	"github.com/seltra-labs/amm-core/internal/oracle"
)

func TestRegistry_HealthzReportsHealthy(t *testing.T) {
	r := NewRegistry()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestRegistry_MetricsExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.SwapOK()
	r.RebalanceApplied()
	r.Observe(45_000, oracle.Medium)
	r.ObserveBreaker("whale", circuit.StateOpen)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "seltra_swaps_ok_total 1")
	require.Contains(t, body, "seltra_rebalances_applied_total 1")
	require.Contains(t, body, `seltra_regime{regime="Medium"} 1`)
	require.Contains(t, body, `seltra_chain_breaker_open{wallet_kind="whale"} 1`)
}

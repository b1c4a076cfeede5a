package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestLaunchpadMetricsRecord(t *testing.T) {
	m := Launchpad()
	require.Same(t, m, Launchpad())

	beforePurchases := testutil.ToFloat64(m.purchases)
	beforeUnits := testutil.ToFloat64(m.unitsSold)
	m.RecordPurchase(19, 1)
	require.Equal(t, beforePurchases+1, testutil.ToFloat64(m.purchases))
	require.Equal(t, beforeUnits+19, testutil.ToFloat64(m.unitsSold))

	failures := m.failures.WithLabelValues("launch_purchase", "affiliate_mismatch")
	before := testutil.ToFloat64(failures)
	m.RecordOperation("launch_purchase", "affiliate_mismatch", time.Millisecond)
	m.RecordOperation("launch_purchase", "", time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(failures))
}

func TestModuleMetricsObserve(t *testing.T) {
	m := ModuleMetrics()
	errs := m.errors.WithLabelValues("launch", "launch_purchase", "-32010")
	before := testutil.ToFloat64(errs)
	m.Observe("launch", "launch_purchase", -32010, time.Millisecond)
	m.Observe("launch", "launch_purchase", 0, time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(errs))

	var nilMetrics *LaunchpadMetrics
	nilMetrics.RecordPurchase(1, 1)
}

func TestMetricsHandlerExposesLaunchpadSeries(t *testing.T) {
	Launchpad().RecordPurchase(3, 0)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "launchpad_purchases_total")
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordBackendRequest(t *testing.T) {
	InitRegistry()

	okBefore := counterValue(t, BackendRequestsTotal.WithLabelValues("backtests", "ok"))
	errBefore := counterValue(t, BackendRequestsTotal.WithLabelValues("backtests", "error"))

	RecordBackendRequest("backtests", 0.01, nil)
	RecordBackendRequest("backtests", 0.02, errors.New("boom"))
	RecordBackendRequest("backtests", 0.03, nil)

	assert.Equal(t, okBefore+2, counterValue(t, BackendRequestsTotal.WithLabelValues("backtests", "ok")))
	assert.Equal(t, errBefore+1, counterValue(t, BackendRequestsTotal.WithLabelValues("backtests", "error")))
}

func TestRecordPageRender(t *testing.T) {
	tests := []struct {
		name   string
		mobile bool
		mode   string
	}{
		{name: "mobile", mobile: true, mode: "mobile"},
		{name: "desktop", mobile: false, mode: "desktop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := counterValue(t, PageRendersTotal.WithLabelValues(tt.mode))
			RecordPageRender(tt.mobile)
			assert.Equal(t, before+1, counterValue(t, PageRendersTotal.WithLabelValues(tt.mode)))
		})
	}
}

func TestRecordCounters(t *testing.T) {
	overshoot := counterValue(t, OvershootCorrectionsTotal)
	malformed := counterValue(t, MalformedPayloadsTotal)

	RecordOvershootCorrection()
	RecordMalformedPayload()
	RecordMalformedPayload()

	assert.Equal(t, overshoot+1, counterValue(t, OvershootCorrectionsTotal))
	assert.Equal(t, malformed+2, counterValue(t, MalformedPayloadsTotal))
}

func TestHandler(t *testing.T) {
	RecordOvershootCorrection()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "backtest_catalog_overshoot_corrections_total")
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOrderPlaced(t *testing.T) {
	m := NewMetrics("luna")
	m.RecordOrderPlaced("online", 3)
	m.RecordOrderPlaced("online", 2)
	m.RecordOrderPlaced("field", 1)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ordersPlaced.WithLabelValues("online")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ordersPlaced.WithLabelValues("field")))
	assert.Equal(t, float64(6), testutil.ToFloat64(m.stockDecremented))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordOrderPlaced("online", 1)
	m.RecordOrderFailure("insufficient_stock")
	m.RecordPaymentPoll("pending")
	m.RecordDatabaseQuery(DBQueryTypeSelect, true, time.Millisecond)
	assert.Nil(t, m.Registry())
	assert.Zero(t, m.Uptime())
}

func TestHandlerExposesCounters(t *testing.T) {
	m := NewMetrics("luna")
	m.RecordOrderFailure("insufficient_stock")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `luna_order_failures_total{reason="insufficient_stock"} 1`)
}

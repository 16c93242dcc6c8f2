package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ObserveOperation(t *testing.T) {
	r := New("test_ledger")

	r.ObserveOperation("deduct", "ok", 15*time.Millisecond)
	r.ObserveOperation("deduct", "ok", 5*time.Millisecond)
	r.ObserveOperation("deduct", "insufficient_stock", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.operations.WithLabelValues("deduct", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.operations.WithLabelValues("deduct", "insufficient_stock")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.operationDuration))
}

func TestRegistry_IncRetry(t *testing.T) {
	r := New("test_ledger")

	r.IncRetry("receive")
	r.IncRetry("receive")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.retries.WithLabelValues("receive")))
}

func TestRegistry_Handler_ExponeMetricas(t *testing.T) {
	r := New("test_ledger")
	r.ObserveHTTP("POST", "/api/inventory/sales", "201", 3*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `test_ledger_http_requests_total{method="POST",path="/api/inventory/sales",status="201"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

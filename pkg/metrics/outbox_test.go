package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.Observe("import.completed", PublishOK)
	m.Observe("import.completed", PublishOK)
	m.Observe("", PublishParked)
	m.ObserveBatch(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Counter("import.completed", PublishOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Counter("unknown", PublishParked)))
	count, err := testutil.GatherAndCount(reg, "outbox_batch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilOutboxMetricsIsNoop(t *testing.T) {
	var m *OutboxMetrics
	m.Observe("x", PublishRetry)
	m.ObserveBatch(time.Second)
	NewOutboxMetrics(nil).Observe("x", PublishOK)
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewOutboxMetrics(reg).Observe("subscription.activated", PublishOK)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `outbox_events_total{event_type="subscription.activated",result="published"} 1`))
}

func TestServeWithoutAddrWaitsForCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "", prometheus.NewRegistry(), nil) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

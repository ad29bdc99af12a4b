package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()

	c.Record("GET", 200, 10*time.Millisecond)
	c.Record("GET", 200, 20*time.Millisecond)
	c.Record("POST", 429, time.Millisecond)
	c.ObserveDecision(true)
	c.ObserveDecision(false)
	c.ObserveDecision(false)
	c.ObserveTableUpdate("live")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("POST", "429")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decisionsTotal.WithLabelValues("allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.decisionsTotal.WithLabelValues("denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tableUpdates.WithLabelValues("live")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.ObserveTableUpdate("store")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), `hrportal_permission_table_updates_total{source="store"} 1`))
}

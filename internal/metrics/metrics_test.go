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

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveRPC("/ledger.v1.GroupService/GetGroup", "ok", 10*time.Millisecond)
	m.ObserveRPC("/ledger.v1.GroupService/GetGroup", "ok", 20*time.Millisecond)
	m.ObserveRPC("/ledger.v1.GroupService/GetGroup", "not_found", time.Millisecond)
	m.ObservePlan(2)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/ledger.v1.GroupService/GetGroup", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/ledger.v1.GroupService/GetGroup", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookup.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookup.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.planSize))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePlan(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "splitledger_settlement_plan_transfers_count 1")
	assert.Contains(t, string(body), "go_goroutines")
}

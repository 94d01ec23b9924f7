package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/webapp", "GET", 200, time.Millisecond)
	m.RecordRequest("/webapp", "GET", 200, time.Millisecond)
	m.RecordError("/api/session", "GET", "INTERNAL_ERROR")
	m.RecordGuardDecision("redirect", "insufficient_permissions")
	m.RecordGuardDecision("allow", "")
	m.RecordExchange("ok")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/webapp|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/session|GET|INTERNAL_ERROR"])
	assert.Equal(t, int64(1), snap.GuardDecisions["redirect|insufficient_permissions"])
	assert.Equal(t, int64(1), snap.GuardDecisions["allow"])
	assert.Equal(t, int64(1), snap.Exchanges["ok"])

	// snapshot is a copy
	snap.Requests["/webapp|GET|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/webapp|GET|200"])
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, 0)
		m.RecordError("/", "GET", "X")
		m.RecordGuardDecision("allow", "")
		m.RecordExchange("ok")
		_ = m.Snapshot()
	})
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncComplaintCreated("pothole")
	m.IncComplaintCreated("pothole")
	m.IncStateTransition("pending", "resolved")
	m.IncComplaintDeleted()
	m.IncNotificationFailed()
	m.ObserveHTTPRequest("GET", "/complaints", "200", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ComplaintsCreated.WithLabelValues("pothole")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StateTransitions.WithLabelValues("pending", "resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComplaintsDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsFailed))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncComplaintCreated("trash")
		m.IncStateTransition("pending", "in_progress")
		m.IncComplaintDeleted()
		m.IncNotificationFailed()
		m.ObserveHTTPRequest("GET", "/", "200", time.Millisecond)
	})
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.FlowStarted("new_loan")
	m.FlowStarted("new_loan")
	m.ValidationFailed("new_loan", "awaiting_item")
	m.StatusChanged("overdue", 3)
	m.StatusChanged("due_soon", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FlowsStarted.WithLabelValues("new_loan")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("new_loan", "awaiting_item")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LifecycleChanges.WithLabelValues("overdue")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Inbound("telegram")
		m.FlowCompleted("new_loan")
		m.OutboundFailed("whatsapp", "text")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Inbound("whatsapp")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `payme_inbound_messages_total{channel="whatsapp"} 1`)
}

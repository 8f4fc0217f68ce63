package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveSign(nil, 10*time.Millisecond)
	m.ObserveSign(errors.New("boom"), time.Millisecond)
	m.ObserveVerify("valid")
	m.ObserveVerify("valid")
	m.ObserveVerify("tampered")
	m.ObserveProvision(ProvisionCreated)
	m.ObserveProvision(ProvisionExisting)
	m.ObserveProvision(ProvisionExisting)

	assert.InDelta(t, 1, testutil.ToFloat64(m.signTotal.WithLabelValues(SignOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.signTotal.WithLabelValues(SignError)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.verifyTotal.WithLabelValues("valid")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.verifyTotal.WithLabelValues("tampered")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.provisionTotal.WithLabelValues(ProvisionExisting)), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.signDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSign(nil, time.Second)
		m.ObserveVerify("valid")
		m.ObserveProvision(ProvisionError)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveVerify("unsigned")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `docsign_verify_total{outcome="unsigned"} 1`)
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgdevment/spamguard/internal/classifier"
	"github.com/rgdevment/spamguard/internal/platform/metrics"
)

var _ classifier.Recorder = (*metrics.Metrics)(nil)

func TestCountersAndHandler(t *testing.T) {
	m := metrics.New()
	m.ObserveStage("pattern")
	m.ObserveStage("pattern")
	m.ProviderFailure("openai")
	m.ReportAccepted("scam")
	m.CASRetry()

	n, err := testutil.GatherAndCount(m.Registry(),
		"spamguard_classifications_total",
		"spamguard_provider_failures_total",
		"spamguard_community_reports_total",
		"spamguard_aggregate_cas_retries_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `spamguard_classifications_total{stage="pattern"} 2`)
}

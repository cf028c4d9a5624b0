package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryMetrics(t *testing.T) {
	m := NewMetrics("autocompleted")

	m.DictionaryLookups.WithLabelValues(ResultHit).Inc()
	m.DictionaryLookups.WithLabelValues(ResultHit).Inc()
	m.DictionaryLookups.WithLabelValues(ResultMiss).Inc()
	m.DictionaryTerms.Set(3)

	assert.InDelta(t, 2, testutil.ToFloat64(m.DictionaryLookups.WithLabelValues(ResultHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DictionaryLookups.WithLabelValues(ResultMiss)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.DictionaryTerms), 0)
}

func TestRegisterBuildInfoIsIdempotent(t *testing.T) {
	m := NewMetrics("autocompleted")
	m.RegisterBuildInfo("autocompleted", "v1")
	m.RegisterBuildInfo("autocompleted", "v2")

	assert.InDelta(t, 1, testutil.ToFloat64(m.BuildInfo.WithLabelValues("autocompleted", "v1")), 0)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics("autocompleted")
	m.DictionaryTermsAdded.WithLabelValues(StatusAdded).Add(5)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dictionary_terms_added_total{status="added"} 5`)
	assert.Contains(t, string(body), "go_goroutines")
}

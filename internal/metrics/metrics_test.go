package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIngest(t *testing.T) {
	beforeDocs := testutil.ToFloat64(IngestDocumentsTotal.WithLabelValues("processed"))
	beforeChunks := testutil.ToFloat64(IngestChunksTotal)

	RecordIngest("processed", 3)
	RecordIngest("failed", 0)

	assert.InDelta(t, beforeDocs+1, testutil.ToFloat64(IngestDocumentsTotal.WithLabelValues("processed")), 1e-9)
	assert.InDelta(t, beforeChunks+3, testutil.ToFloat64(IngestChunksTotal), 1e-9)
}

func TestRecordEmbedding(t *testing.T) {
	ok := testutil.ToFloat64(EmbeddingRequestsTotal.WithLabelValues(OutcomeSuccess))
	bad := testutil.ToFloat64(EmbeddingRequestsTotal.WithLabelValues(OutcomeError))

	RecordEmbedding(nil, 10*time.Millisecond)
	RecordEmbedding(errors.New("boom"), time.Millisecond)

	assert.InDelta(t, ok+1, testutil.ToFloat64(EmbeddingRequestsTotal.WithLabelValues(OutcomeSuccess)), 1e-9)
	assert.InDelta(t, bad+1, testutil.ToFloat64(EmbeddingRequestsTotal.WithLabelValues(OutcomeError)), 1e-9)
}

func TestSetIndexEntries(t *testing.T) {
	SetIndexEntries(10, 2)

	assert.InDelta(t, 10.0, testutil.ToFloat64(VectorIndexEntries.WithLabelValues("live")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(VectorIndexEntries.WithLabelValues("tombstoned")), 1e-9)
}

func TestHandler_ServesNamespace(t *testing.T) {
	RecordQuery(OutcomeSuccess, 5*time.Millisecond)

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docuquery_query_total")
	assert.Contains(t, string(body), "docuquery_query_duration_seconds")
}

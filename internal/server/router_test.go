package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/altura-labs/recommendation/internal/api/handlers"
	"github.com/altura-labs/recommendation/internal/health"
	"github.com/altura-labs/recommendation/internal/opensearch"
	"github.com/altura-labs/recommendation/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingSearcher struct {
	queries []opensearch.NeuralQuery
	hits    []opensearch.Hit
	err     error
}

func (r *recordingSearcher) NeuralSearch(ctx context.Context, q opensearch.NeuralQuery) ([]opensearch.Hit, error) {
	r.queries = append(r.queries, q)
	return r.hits, r.err
}

func (r *recordingSearcher) UpsertDocument(ctx context.Context, index, id string, doc opensearch.Document) (*opensearch.IndexResult, error) {
	return &opensearch.IndexResult{ID: id, Result: "created", Version: 1}, nil
}

type staticPinger struct{ err error }

func (s staticPinger) Ping(ctx context.Context) error { return s.err }

func newTestRouter(searcher *recordingSearcher) *gin.Engine {
	logger := logrus.New()
	checker := health.NewHealthChecker(logger)
	checker.Register("opensearch", staticPinger{})

	service := services.NewRecommendationService(searcher, nil, services.Options{}, logger)
	return NewRouter(RouterDeps{
		Recommendation: handlers.NewRecommendationHandler(service, logger),
		Health:         handlers.NewHealthHandler(checker),
		Logger:         logger,
	})
}

func post(router http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestRecommend_MissingText(t *testing.T) {
	searcher := &recordingSearcher{}
	w := post(newTestRouter(searcher), "/", `{"modelId":"m"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"text is required"}`, w.Body.String())
	assertCORS(t, w)
	assert.Empty(t, searcher.queries)
}

func TestRecommend_MissingModelID(t *testing.T) {
	searcher := &recordingSearcher{}
	w := post(newTestRouter(searcher), "/", `{"text":"hello"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"modelId is required"}`, w.Body.String())
	assertCORS(t, w)
	assert.Empty(t, searcher.queries)
}

func TestRecommend_EmptyBody(t *testing.T) {
	w := post(newTestRouter(&recordingSearcher{}), "/", ``)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"text is required"}`, w.Body.String())
}

func TestRecommend_MalformedBody(t *testing.T) {
	searcher := &recordingSearcher{}
	w := post(newTestRouter(searcher), "/", `{"text":`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"unexpected end of JSON input","type":"JSONDecodeError"}`, w.Body.String())
	assertCORS(t, w)
	assert.Empty(t, searcher.queries)
}

func TestRecommend_TrailingSlashIsNotRedirected(t *testing.T) {
	searcher := &recordingSearcher{}
	w := post(newTestRouter(searcher), "/api/v1/recommendations/", `{"text":"x","modelId":"m"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, w.Header().Get("Location"))
	assert.Empty(t, searcher.queries)
}

func TestRecovery_ReportsKind(t *testing.T) {
	router := newTestRouter(&recordingSearcher{})
	router.POST("/panic/value", func(c *gin.Context) { panic("nil map write") })
	router.POST("/panic/error", func(c *gin.Context) { panic(errors.New("boom")) })

	tests := []struct {
		path string
		body string
	}{
		{"/panic/value", `{"error":"nil map write","type":"RuntimeError"}`},
		{"/panic/error", `{"error":"boom","type":"errorString"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := post(router, tt.path, `{}`)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
			assertCORS(t, w)
		})
	}
}

func TestRecommend_Success(t *testing.T) {
	searcher := &recordingSearcher{hits: []opensearch.Hit{
		{ID: "doc-1", Score: 0.91, Text: "Telehealth for rural clinics", Metadata: map[string]interface{}{"stage": "seed"}},
		{ID: "doc-2", Score: 0.55, Metadata: map[string]interface{}{}},
	}}
	router := newTestRouter(searcher)

	for _, path := range []string{"/", "/api/v1/recommendations"} {
		searcher.queries = nil
		w := post(router, path, `{"text":"rural healthcare","modelId":"model-7","indexName":"startups","topK":2}`)

		require.Equal(t, http.StatusOK, w.Code, path)
		assertCORS(t, w)

		require.Len(t, searcher.queries, 1)
		assert.Equal(t, opensearch.NeuralQuery{Index: "startups", Text: "rural healthcare", ModelID: "model-7", K: 2}, searcher.queries[0])

		assert.JSONEq(t, `{
			"success": true,
			"similarDocuments": [
				{"id":"doc-1","score":0.91,"text":"Telehealth for rural clinics","metadata":{"stage":"seed"}},
				{"id":"doc-2","score":0.55,"text":null,"metadata":{}}
			]
		}`, w.Body.String())
	}
}

func TestRecommend_NoResults(t *testing.T) {
	w := post(newTestRouter(&recordingSearcher{}), "/", `{"text":"x","modelId":"m"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"similarDocuments":[]}`, w.Body.String())
}

func TestRecommend_UpstreamFailure(t *testing.T) {
	searcher := &recordingSearcher{err: &opensearch.ResponseError{
		StatusCode: 404,
		Type:       "index_not_found_exception",
		Reason:     "no such index [missing]",
	}}
	w := post(newTestRouter(searcher), "/", `{"text":"x","modelId":"m","indexName":"missing"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assertCORS(t, w)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "opensearch returned 404 index_not_found_exception: no such index [missing]", body["error"])
	assert.Equal(t, "NotFoundError", body["type"])
	assert.Len(t, searcher.queries, 1)
}

func TestPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&recordingSearcher{}).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthEndpoint(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&recordingSearcher{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(&recordingSearcher{})
	post(router, "/", `{"text":"x","modelId":"m"}`)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recommendation_requests_total")
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ainews/internal/domain"
	"ainews/testdata/utils"
)

type listCall struct {
	skip, limit int
	minScore    float64
}

type fakeStore struct {
	pages   [][]domain.Story
	calls   []listCall
	story   *domain.Story
	metrics *domain.StoryMetrics
	update  domain.MetricsUpdate
	score   float64
	err     error
}

func (f *fakeStore) GetStories(_ context.Context, skip, limit int, minScore float64) ([]domain.Story, error) {
	f.calls = append(f.calls, listCall{skip, limit, minScore})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pages) == 0 {
		return []domain.Story{}, nil
	}
	page := f.pages[0]
	if len(f.pages) > 1 {
		f.pages = f.pages[1:]
	}
	return page, nil
}

func (f *fakeStore) GetStoryByID(context.Context, int64) (*domain.Story, error) {
	return f.story, f.err
}

func (f *fakeStore) UpdateStoryScore(_ context.Context, _ int64, score float64) (*domain.Story, error) {
	f.score = score
	if f.story == nil || f.err != nil {
		return nil, f.err
	}
	updated := *f.story
	updated.InterestingScore = score
	return &updated, nil
}

func (f *fakeStore) GetStoryMetrics(context.Context, int64) (*domain.StoryMetrics, error) {
	return f.metrics, f.err
}

func (f *fakeStore) UpdateStoryMetrics(_ context.Context, _ int64, update domain.MetricsUpdate) (*domain.StoryMetrics, error) {
	f.update = update
	return f.metrics, f.err
}

type fakeIngester struct {
	calls int
	err   error
}

func (f *fakeIngester) Ingest(context.Context, int) (*domain.IngestStats, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.IngestStats{New: 1}, nil
}

type fakeDigests struct {
	content  string
	minScore float64
	limit    int
	err      error
}

func (f *fakeDigests) GenerateDailyDigest(_ context.Context, minScore float64, limit int) (string, error) {
	f.minScore, f.limit = minScore, limit
	return f.content, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func newTestRouter(store *fakeStore, ingester Ingester, digests DigestGenerator, db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return NewRouter([]string{"http://localhost:3000"}, Handlers{
		News:    NewNewsHandler(store, ingester, true, logger),
		Digest:  NewDigestHandler(digests, logger),
		Stories: NewStoryHandler(store, logger),
		DB:      db,
	})
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func stories(n int) []domain.Story {
	out := make([]domain.Story, n)
	for i := range out {
		out[i] = domain.Story{
			ID:               int64(i + 1),
			Title:            "Story",
			URL:              "https://example.com",
			Source:           "Wired",
			InterestingScore: 0.8,
			PublishedAt:      time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC),
		}
	}
	return out
}

func TestRoot(t *testing.T) {
	r := newTestRouter(&fakeStore{}, nil, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"AI News Aggregator API","status":"running"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(&fakeStore{}, nil, &fakeDigests{}, fakePinger{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"connected"}`, w.Body.String())

	w = do(newTestRouter(&fakeStore{}, nil, &fakeDigests{}, fakePinger{err: errors.New("down")}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetNews_Defaults(t *testing.T) {
	store := &fakeStore{pages: [][]domain.Story{stories(10)}}
	r := newTestRouter(store, &fakeIngester{}, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/api/news", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []listCall{{0, 10, 0}}, store.calls)

	var res []StoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res, 10)
	assert.Equal(t, "2025-01-20T10:00:00Z", res[0].PublishedAt)
	assert.Nil(t, res[0].Description)
}

func TestGetNews_PassesQuery(t *testing.T) {
	store := &fakeStore{pages: [][]domain.Story{stories(5)}}
	r := newTestRouter(store, &fakeIngester{}, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/api/news?skip=10&limit=5&min_score=0.6", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []listCall{{10, 5, 0.6}}, store.calls)
}

func TestGetNews_InvalidQuery(t *testing.T) {
	for _, target := range []string{
		"/api/news?limit=0",
		"/api/news?limit=101",
		"/api/news?skip=-1",
		"/api/news?min_score=-0.1",
		"/api/news?limit=abc",
	} {
		t.Run(target, func(t *testing.T) {
			store := &fakeStore{}
			w := do(newTestRouter(store, &fakeIngester{}, &fakeDigests{}, fakePinger{}), http.MethodGet, target, "")

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
			assert.Empty(t, store.calls)
		})
	}
}

func TestGetNews_BackfillsShortPage(t *testing.T) {
	store := &fakeStore{pages: [][]domain.Story{stories(2), stories(10)}}
	ingester := &fakeIngester{}
	r := newTestRouter(store, ingester, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/api/news", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ingester.calls)
	assert.Len(t, store.calls, 2)

	var res []StoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Len(t, res, 10)
}

func TestGetNews_BackfillFailure(t *testing.T) {
	store := &fakeStore{pages: [][]domain.Story{stories(0)}}
	ingester := &fakeIngester{err: errors.New("NEWS_API_KEY not found in environment variables")}
	r := newTestRouter(store, ingester, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/api/news", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Error fetching news: NEWS_API_KEY not found in environment variables"}`, w.Body.String())
}

func TestGetNews_NoBackfillWithoutIngester(t *testing.T) {
	store := &fakeStore{pages: [][]domain.Story{stories(0)}}
	r := newTestRouter(store, nil, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/api/news", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Len(t, store.calls, 1)
}

func TestGetNews_StoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	r := newTestRouter(store, &fakeIngester{}, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/api/news", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error fetching news: db down")
}

func TestGenerateDigest(t *testing.T) {
	digests := &fakeDigests{content: "# AI News Digest\n\n### 1. A\n\n### 2. B\n"}
	r := newTestRouter(&fakeStore{}, nil, digests, fakePinger{})

	w := do(r, http.MethodGet, "/api/digest/generate", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.7, digests.minScore)
	assert.Equal(t, 10, digests.limit)

	var res DigestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, digests.content, res.Content)
	assert.Equal(t, 2, res.StoryCount)
	assert.Equal(t, 0.7, res.MinScore)
	_, err := time.Parse(time.RFC3339, res.GeneratedAt)
	assert.NoError(t, err)
}

func TestGenerateDigest_Query(t *testing.T) {
	digests := &fakeDigests{}
	r := newTestRouter(&fakeStore{}, nil, digests, fakePinger{})

	w := do(r, http.MethodGet, "/api/digest/generate?min_score=0.5&limit=3", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.5, digests.minScore)
	assert.Equal(t, 3, digests.limit)
}

func TestGenerateDigest_Error(t *testing.T) {
	r := newTestRouter(&fakeStore{}, nil, &fakeDigests{err: errors.New("db down")}, fakePinger{})

	w := do(r, http.MethodGet, "/api/digest/generate", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Error generating digest: db down"}`, w.Body.String())
}

func TestGetStory(t *testing.T) {
	story := stories(1)[0]
	r := newTestRouter(&fakeStore{story: &story}, nil, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/api/stories/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(newTestRouter(&fakeStore{}, nil, &fakeDigests{}, fakePinger{}), http.MethodGet, "/api/stories/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/api/stories/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateScore(t *testing.T) {
	story := stories(1)[0]
	store := &fakeStore{story: &story}
	r := newTestRouter(store, nil, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodPut, "/api/stories/1/score", `{"score":0}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, store.score)

	var res StoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 0.0, res.InterestingScore)
}

func TestUpdateScore_Invalid(t *testing.T) {
	story := stories(1)[0]
	r := newTestRouter(&fakeStore{story: &story}, nil, &fakeDigests{}, fakePinger{})

	for _, body := range []string{`{}`, `{"score":1.5}`, `{"score":-1}`, `not json`} {
		w := do(r, http.MethodPut, "/api/stories/1/score", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
	}
}

func TestUpdateScore_NotFound(t *testing.T) {
	r := newTestRouter(&fakeStore{}, nil, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodPut, "/api/stories/99/score", `{"score":0.5}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMetrics_Partial(t *testing.T) {
	store := &fakeStore{metrics: &domain.StoryMetrics{StoryID: 1, LinkClicks: 4, FeedbackScore: utils.Ptr(0.9)}}
	r := newTestRouter(store, nil, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodPatch, "/api/stories/1/metrics", `{"link_clicks":4}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.update.LinkClicks)
	assert.Equal(t, int64(4), *store.update.LinkClicks)
	assert.Nil(t, store.update.EmailOpens)
	assert.Nil(t, store.update.TimeSpent)
	assert.Nil(t, store.update.FeedbackScore)

	var res MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, int64(4), res.LinkClicks)
}

func TestUpdateMetrics_Rejects(t *testing.T) {
	store := &fakeStore{metrics: &domain.StoryMetrics{StoryID: 1}}
	r := newTestRouter(store, nil, &fakeDigests{}, fakePinger{})

	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodPatch, "/api/stories/1/metrics", `{}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, http.MethodPatch, "/api/stories/1/metrics", `{"email_opens":-1}`).Code)
}

func TestUpdateMetrics_NotFound(t *testing.T) {
	r := newTestRouter(&fakeStore{}, nil, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodPatch, "/api/stories/1/metrics", `{"email_opens":3}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMetrics(t *testing.T) {
	store := &fakeStore{metrics: &domain.StoryMetrics{StoryID: 1, EmailOpens: 12}}
	r := newTestRouter(store, nil, &fakeDigests{}, fakePinger{})

	w := do(r, http.MethodGet, "/api/stories/1/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email_opens":12`)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(&fakeStore{}, nil, &fakeDigests{}, fakePinger{})

	req := httptest.NewRequest(http.MethodOptions, "/api/news", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/verbdrill/internal/api/middleware"
	"github.com/phrazzld/verbdrill/internal/api/shared"
	"github.com/phrazzld/verbdrill/internal/catalog"
	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/domain/grading"
	"github.com/phrazzld/verbdrill/internal/domain/srs"
	"github.com/phrazzld/verbdrill/internal/platform/memory"
	"github.com/phrazzld/verbdrill/internal/service/attempt"
	"github.com/phrazzld/verbdrill/internal/service/auth"
	"github.com/phrazzld/verbdrill/internal/service/queue"
	"github.com/phrazzld/verbdrill/internal/service/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLearner = "learner-1"

type testServer struct {
	router  http.Handler
	reviews *ReviewHandler
	states  *memory.ReviewStateStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat, err := catalog.New([]domain.CatalogEntry{
		{Verb: "hablar", Tense: "preterite", Person: "yo", Canonical: "hablé"},
		{Verb: "comer", Tense: "present", Person: "nosotros", Canonical: "comemos"},
		{Verb: "vivir", Tense: "future", Person: "yo", Canonical: "viviré"},
	})
	require.NoError(t, err)
	filters, err := catalog.NewFilterEnv()
	require.NoError(t, err)

	states := memory.NewReviewStateStore(log)
	attempts := attempt.NewService(states, cat, grading.NewDefaultValidator(), srs.NewDefaultService(), nil, log)
	sessions := NewSessionHandler(selector.NewService(cat, states, filters, log, selector.WithSeed(7)), 2, log)
	reviews := NewReviewHandler(queue.NewService(states, time.UTC, log), attempts, log)
	answers := NewAttemptHandler(attempts, log)

	authMiddleware := middleware.NewAuthMiddleware(auth.NewMockJWTService(testLearner))
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/sessions", sessions.CreateSession)
		r.Post("/attempts", answers.SubmitAttempt)
		r.Get("/reviews/due", reviews.GetDueItems)
		r.Get("/reviews/stats", reviews.GetStats)
		r.Post("/reviews/postpone", reviews.PostponeReview)
		r.Delete("/progress", reviews.ResetProgress)
	})

	return &testServer{router: r, reviews: reviews, states: states}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer test-token")
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(rr *httptest.ResponseRecorder, v interface{}) error {
	return json.NewDecoder(rr.Body).Decode(v)
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, decodeBody(rr, &body))
	return body.Error
}

func TestSubmitAttempt(t *testing.T) {
	t.Parallel()

	t.Run("correct answer", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rr := srv.do(t, http.MethodPost, "/api/attempts", AttemptRequest{
			Verb: "hablar", Tense: "preterite", Person: "yo", Answer: "hablé", ResponseTimeSeconds: 2,
		})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp AttemptResponse
		require.NoError(t, decodeBody(rr, &resp))
		assert.True(t, resp.IsCorrect)
		assert.GreaterOrEqual(t, resp.Quality, domain.PassingQuality)
		assert.GreaterOrEqual(t, resp.NextReviewInDays, 1)
		assert.NotEmpty(t, resp.AttemptID)
		assert.NotEmpty(t, resp.DifficultyTier)
		assert.True(t, resp.NextReviewAt.After(time.Now()))
	})

	t.Run("incorrect answer", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rr := srv.do(t, http.MethodPost, "/api/attempts", AttemptRequest{
			Verb: "hablar", Tense: "preterite", Person: "yo", Answer: "comí",
		})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp AttemptResponse
		require.NoError(t, decodeBody(rr, &resp))
		assert.False(t, resp.IsCorrect)
		assert.Less(t, resp.Quality, domain.PassingQuality)
		assert.Contains(t, resp.Feedback, "hablé")
	})

	t.Run("retry with same attempt id", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		req := AttemptRequest{Verb: "comer", Tense: "present", Person: "nosotros", Answer: "comemos", AttemptID: "a-1"}
		require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/attempts", req).Code)
		rr := srv.do(t, http.MethodPost, "/api/attempts", req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp AttemptResponse
		require.NoError(t, decodeBody(rr, &resp))
		assert.True(t, resp.Duplicate)
	})

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "unknown exercise",
			body:           AttemptRequest{Verb: "nadar", Tense: "preterite", Person: "yo", Answer: "nadé"},
			expectedStatus: http.StatusNotFound,
			expectedError:  "Exercise not found",
		},
		{
			name:           "missing verb",
			body:           AttemptRequest{Tense: "preterite", Person: "yo", Answer: "hablé"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid verb: required field",
		},
		{
			name:           "negative response time",
			body:           AttemptRequest{Verb: "hablar", Tense: "preterite", Person: "yo", ResponseTimeSeconds: -1},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid response_time_seconds: too small",
		},
		{
			name:           "unknown field",
			body:           `{"verb":"hablar","tense":"preterite","answer":"hablé","extra":true}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request format",
		},
		{
			name:           "malformed json",
			body:           `{"verb":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t)

			rr := srv.do(t, http.MethodPost, "/api/attempts", tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Equal(t, tt.expectedError, errorMessage(t, rr))
		})
	}
}

func TestUnauthenticatedRequest(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reviews/stats", nil)
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateSession(t *testing.T) {
	t.Parallel()

	t.Run("default count", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rr := srv.do(t, http.MethodPost, "/api/sessions", SessionRequest{})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp SessionResponse
		require.NoError(t, decodeBody(rr, &resp))
		assert.Len(t, resp.Exercises, 2)
		for _, ex := range resp.Exercises {
			assert.Equal(t, string(domain.SourceNew), ex.Source)
			assert.Equal(t, string(domain.TierNew), ex.Tier)
		}
	})

	t.Run("constrained by verb", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		rr := srv.do(t, http.MethodPost, "/api/sessions", SessionRequest{Verbs: []string{"vivir"}, Count: 5})
		require.Equal(t, http.StatusOK, rr.Code)

		var resp SessionResponse
		require.NoError(t, decodeBody(rr, &resp))
		require.Len(t, resp.Exercises, 1)
		assert.Equal(t, "vivir", resp.Exercises[0].Verb)
		assert.Equal(t, "future", resp.Exercises[0].Tense)
	})

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "no matching exercises",
			body:           SessionRequest{Verbs: []string{"nadar"}},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "unknown difficulty",
			body:           SessionRequest{Difficulty: "expert"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "count too large",
			body:           SessionRequest{Count: 1000},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid filter",
			body:           SessionRequest{Filter: "verb +"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t)
			assert.Equal(t, tt.expectedStatus, srv.do(t, http.MethodPost, "/api/sessions", tt.body).Code)
		})
	}
}

func TestReviewEndpoints(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodPost, "/api/reviews/postpone", PostponeRequest{
		Verb: "hablar", Tense: "preterite", Person: "yo", Days: 2,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	for _, req := range []AttemptRequest{
		{Verb: "hablar", Tense: "preterite", Person: "yo", Answer: "hable"},
		{Verb: "comer", Tense: "present", Person: "nosotros", Answer: "comemos"},
	} {
		require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/attempts", req).Code)
	}

	rr = srv.do(t, http.MethodGet, "/api/reviews/due", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var due DueItemsResponse
	require.NoError(t, decodeBody(rr, &due))
	assert.Equal(t, 0, due.Count)

	srv.reviews.now = func() time.Time { return time.Now().Add(400 * 24 * time.Hour) }

	rr = srv.do(t, http.MethodGet, "/api/reviews/due?limit=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, decodeBody(rr, &due))
	assert.Equal(t, 1, due.Count)
	require.Len(t, due.Items, 1)
	assert.Positive(t, due.Items[0].DaysOverdue)

	rr = srv.do(t, http.MethodGet, "/api/reviews/due?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodGet, "/api/reviews/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats StatsResponse
	require.NoError(t, decodeBody(rr, &stats))
	assert.Equal(t, 2, stats.TotalDue)
	assert.Equal(t, 2, stats.TotalReviewed)
	assert.Equal(t, 50.0, stats.AverageRetention)
	assert.Len(t, stats.DueByTier, len(domain.AllTiers))

	srv.reviews.now = time.Now

	rr = srv.do(t, http.MethodPost, "/api/reviews/postpone", PostponeRequest{
		Verb: "hablar", Tense: "preterite", Person: "yo", Days: 3,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var postponed ReviewStateResponse
	require.NoError(t, decodeBody(rr, &postponed))
	assert.True(t, postponed.NextReviewAt.After(time.Now().Add(3*24*time.Hour)))

	rr = srv.do(t, http.MethodPost, "/api/reviews/postpone", PostponeRequest{
		Verb: "hablar", Tense: "preterite", Person: "yo", Days: 0,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodDelete, "/api/progress", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var reset ResetResponse
	require.NoError(t, decodeBody(rr, &reset))
	assert.Equal(t, 2, reset.Deleted)

	rr = srv.do(t, http.MethodGet, "/api/reviews/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, decodeBody(rr, &stats))
	assert.Equal(t, 0, stats.TotalReviewed)
}

func TestHandlerConstructorsPanic(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Panics(t, func() { NewSessionHandler(nil, 1, log) })
	assert.Panics(t, func() { NewAttemptHandler(nil, log) })
	assert.Panics(t, func() { NewReviewHandler(nil, nil, log) })
}

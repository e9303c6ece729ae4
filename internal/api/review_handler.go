package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/verbdrill/internal/api/shared"
	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/service/attempt"
	"github.com/phrazzld/verbdrill/internal/service/queue"
)

// ReviewHandler serves the learner's review queue and progress.
type ReviewHandler struct {
	queue    queue.Service
	attempts attempt.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(queueService queue.Service, attemptService attempt.Service, logger *slog.Logger) *ReviewHandler {
	if queueService == nil {
		panic("queue service cannot be nil for ReviewHandler")
	}
	if attemptService == nil {
		panic("attempt service cannot be nil for ReviewHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for ReviewHandler")
	}
	return &ReviewHandler{
		queue:    queueService,
		attempts: attemptService,
		logger:   logger.With(slog.String("component", "review_handler")),
		now:      time.Now,
	}
}

// GetDueItems handles GET /api/reviews/due?limit=N.
func (h *ReviewHandler) GetDueItems(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := requireLearnerID(w, r, log)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	items, err := h.queue.GetDueItems(r.Context(), learnerID, h.now(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get due reviews")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, dueItemsToResponse(items))
}

// GetStats handles GET /api/reviews/stats.
func (h *ReviewHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := requireLearnerID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.queue.GetStats(r.Context(), learnerID, h.now())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get review statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}

// PostponeReview handles POST /api/reviews/postpone.
func (h *ReviewHandler) PostponeReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := requireLearnerID(w, r, log)
	if !ok {
		return
	}

	var req PostponeRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	item, err := domain.NewReviewItem(learnerID, req.Verb, req.Tense, req.Person)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	state, err := h.attempts.Postpone(r.Context(), item, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone review")
		return
	}

	log.Debug("review postponed",
		slog.String("learner_id", learnerID),
		slog.String("item", item.Key()),
		slog.Int("days", req.Days))
	shared.RespondWithJSON(w, r, http.StatusOK, stateToResponse(item, state))
}

// ResetProgress handles DELETE /api/progress.
func (h *ReviewHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := requireLearnerID(w, r, log)
	if !ok {
		return
	}

	deleted, err := h.attempts.Reset(r.Context(), learnerID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to reset progress")
		return
	}

	log.Info("progress reset", slog.String("learner_id", learnerID), slog.Int("deleted", deleted))
	shared.RespondWithJSON(w, r, http.StatusOK, ResetResponse{Deleted: deleted})
}

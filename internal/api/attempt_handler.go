package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/verbdrill/internal/api/shared"
	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/service/attempt"
)

// AttemptHandler handles answer submissions.
type AttemptHandler struct {
	attempts attempt.Service
	logger   *slog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService attempt.Service, logger *slog.Logger) *AttemptHandler {
	if attemptService == nil {
		panic("attempt service cannot be nil for AttemptHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for AttemptHandler")
	}
	return &AttemptHandler{
		attempts: attemptService,
		logger:   logger.With(slog.String("component", "attempt_handler")),
	}
}

// SubmitAttempt handles POST /api/attempts. It grades the answer, updates
// the review schedule, and returns the outcome.
func (h *AttemptHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := requireLearnerID(w, r, log)
	if !ok {
		return
	}

	var req AttemptRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	outcome, err := h.attempts.Submit(r.Context(), attempt.Submission{
		LearnerID:           learnerID,
		Verb:                req.Verb,
		Tense:               req.Tense,
		Person:              req.Person,
		Answer:              req.Answer,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		AttemptID:           req.AttemptID,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit attempt")
		return
	}

	log.Debug("attempt submitted",
		slog.String("learner_id", learnerID),
		slog.String("item", outcome.Item.Key()),
		slog.Int("quality", outcome.Result.Quality))
	shared.RespondWithJSON(w, r, http.StatusOK, outcomeToResponse(outcome))
}

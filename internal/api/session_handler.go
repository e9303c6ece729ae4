package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/verbdrill/internal/api/shared"
	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/service/selector"
)

// SessionHandler handles practice session requests.
type SessionHandler struct {
	selector     selector.Service
	defaultCount int
	logger       *slog.Logger
}

// NewSessionHandler creates a new SessionHandler. defaultCount is used when
// a request does not ask for a specific number of exercises.
func NewSessionHandler(selectorService selector.Service, defaultCount int, logger *slog.Logger) *SessionHandler {
	if selectorService == nil {
		panic("selector service cannot be nil for SessionHandler")
	}
	if logger == nil {
		panic("logger cannot be nil for SessionHandler")
	}
	if defaultCount < 1 {
		defaultCount = 1
	}
	return &SessionHandler{
		selector:     selectorService,
		defaultCount: defaultCount,
		logger:       logger.With(slog.String("component", "session_handler")),
	}
}

// CreateSession handles POST /api/sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, ok := requireLearnerID(w, r, log)
	if !ok {
		return
	}

	var req SessionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	constraints, err := constraintsFromRequest(req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	count := req.Count
	if count == 0 {
		count = h.defaultCount
	}

	exercises, err := h.selector.Select(r.Context(), learnerID, constraints, count)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to select exercises")
		return
	}

	resp := SessionResponse{Exercises: make([]ExerciseResponse, 0, len(exercises))}
	for _, spec := range exercises {
		resp.Exercises = append(resp.Exercises, exerciseToResponse(spec))
	}

	log.Debug("session created",
		slog.String("learner_id", learnerID),
		slog.Int("exercises", len(resp.Exercises)))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

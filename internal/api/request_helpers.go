package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/phrazzld/verbdrill/internal/api/shared"
	"github.com/phrazzld/verbdrill/internal/domain"
	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/redact"
)

// requireLearnerID extracts the authenticated learner from the request
// context. It writes a 401 response and returns false when none is present.
func requireLearnerID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	learnerID, ok := shared.GetLearnerID(r.Context())
	if !ok {
		if log == nil {
			log = logger.FromContextOrDefault(r.Context(), slog.Default())
		}
		log.Warn("learner ID not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization required")
		return "", false
	}
	return learnerID, true
}

// decodeAndValidate decodes the JSON body into v and validates it. It writes
// a 400 response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}, log *slog.Logger) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// queryInt parses an optional non-negative integer query parameter.
// A missing parameter yields def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer", domain.ErrInvalidFormat)
	}
	return n, nil
}

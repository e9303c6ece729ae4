package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/verbdrill/internal/platform/metrics"
)

// AnalyticsLogHandler writes graded attempts to the log as structured
// analytics records.
type AnalyticsLogHandler struct {
	logger *slog.Logger
}

// NewAnalyticsLogHandler creates the handler. If logger is nil, the default
// logger is used.
func NewAnalyticsLogHandler(logger *slog.Logger) *AnalyticsLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsLogHandler{logger: logger.With(slog.String("component", "analytics"))}
}

// HandleEvent implements EventHandler.
func (h *AnalyticsLogHandler) HandleEvent(ctx context.Context, event *Event) error {
	switch event.Type {
	case TypeAttemptGraded:
		var p AttemptGraded
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		h.logger.InfoContext(ctx, "attempt graded",
			slog.String("event_id", event.ID.String()),
			slog.String("learner_id", p.LearnerID),
			slog.String("item_key", p.ItemKey),
			slog.String("attempt_id", p.AttemptID),
			slog.Bool("is_correct", p.IsCorrect),
			slog.Bool("matched_alternative", p.MatchedAlternative),
			slog.Int("score", p.Score),
			slog.Int("quality", p.Quality),
			slog.Float64("response_time_seconds", p.ResponseTimeSeconds),
			slog.String("tier", p.Tier),
			slog.Int("interval_days", p.IntervalDays),
			slog.Bool("duplicate", p.Duplicate))
	case TypeProgressReset:
		var p ProgressReset
		if err := event.UnmarshalPayload(&p); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Type, err)
		}
		h.logger.InfoContext(ctx, "progress reset",
			slog.String("event_id", event.ID.String()),
			slog.String("learner_id", p.LearnerID),
			slog.Int("deleted", p.Deleted))
	}
	return nil
}

// MetricsHandler feeds graded attempts into Prometheus.
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates the handler.
func NewMetricsHandler(m *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

// HandleEvent implements EventHandler.
func (h *MetricsHandler) HandleEvent(_ context.Context, event *Event) error {
	if event.Type != TypeAttemptGraded {
		return nil
	}

	var p AttemptGraded
	if err := event.UnmarshalPayload(&p); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}
	h.metrics.ObserveAttempt(attemptOutcome(p), p.Quality, p.ResponseTimeSeconds)
	return nil
}

func attemptOutcome(p AttemptGraded) string {
	switch {
	case p.Duplicate:
		return metrics.OutcomeDuplicate
	case p.IsCorrect:
		return metrics.OutcomeCorrect
	case p.MatchedAlternative:
		return metrics.OutcomeAlternative
	case p.Quality > 0:
		return metrics.OutcomeCloseMiss
	default:
		return metrics.OutcomeIncorrect
	}
}

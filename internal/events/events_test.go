package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/platform/metrics"
)

func TestNewEvent(t *testing.T) {
	t.Parallel()

	payload := AttemptGraded{
		LearnerID: "learner-1",
		ItemKey:   "hablar|preterite|yo",
		IsCorrect: true,
		Score:     100,
		Quality:   5,
	}

	event, err := NewEvent(TypeAttemptGraded, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeAttemptGraded, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded AttemptGraded
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEventUnencodablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewEvent(TypeAttemptGraded, make(chan int))
	assert.Error(t, err)
}

func TestAnalyticsLogHandler(t *testing.T) {
	t.Parallel()

	buf, log := logger.NewTestLogger()
	handler := NewAnalyticsLogHandler(log)

	event, err := NewEvent(TypeAttemptGraded, AttemptGraded{
		LearnerID: "learner-1",
		ItemKey:   "comer|preterite|yo",
		Quality:   2,
	})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(context.Background(), event))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "attempt graded", entries[0]["msg"])
	assert.Equal(t, "analytics", entries[0]["component"])
	assert.Equal(t, "comer|preterite|yo", entries[0]["item_key"])
	assert.Equal(t, float64(2), entries[0]["quality"])

	bad := &Event{Type: TypeAttemptGraded, Payload: []byte("{")}
	assert.Error(t, handler.HandleEvent(context.Background(), bad))
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	handler := NewMetricsHandler(m)

	payloads := []AttemptGraded{
		{IsCorrect: true, Quality: 5},
		{MatchedAlternative: true, Quality: 4},
		{Quality: 2},
		{Quality: 0},
		{IsCorrect: true, Quality: 5, Duplicate: true},
	}
	for _, p := range payloads {
		event, err := NewEvent(TypeAttemptGraded, p)
		require.NoError(t, err)
		require.NoError(t, handler.HandleEvent(context.Background(), event))
	}

	reset, err := NewEvent(TypeProgressReset, ProgressReset{})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(context.Background(), reset))

	for _, outcome := range []string{
		metrics.OutcomeCorrect, metrics.OutcomeAlternative, metrics.OutcomeCloseMiss,
		metrics.OutcomeIncorrect, metrics.OutcomeDuplicate,
	} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.AttemptsTotal.WithLabelValues(outcome)), outcome)
	}
}

package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler records the events it receives.
type MockEventHandler struct {
	mu           sync.Mutex
	HandledCount int
	LastEvent    *Event
	HandlerError error
}

func (m *MockEventHandler) HandleEvent(_ context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HandledCount++
	m.LastEvent = event
	return m.HandlerError
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		event, err := NewEvent(TypeAttemptGraded, AttemptGraded{LearnerID: "learner-1"})
		require.NoError(t, err)

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewEvent(TypeAttemptGraded, AttemptGraded{LearnerID: "learner-1"})
		require.NoError(t, err)

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Same(t, event, handler1.LastEvent)
		assert.Same(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		successHandler := &MockEventHandler{}
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		event, err := NewEvent(TypeProgressReset, ProgressReset{LearnerID: "learner-1", Deleted: 2})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "handler error")
		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
	})

	t.Run("handler func adapter", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(nil)

		var got string
		emitter.RegisterHandler(HandlerFunc(func(_ context.Context, e *Event) error {
			got = e.Type
			return nil
		}))

		event, err := NewEvent(TypeProgressReset, ProgressReset{})
		require.NoError(t, err)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, TypeProgressReset, got)
	})

	t.Run("subscribers only see their types", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		everything := &MockEventHandler{}
		gradedOnly := &MockEventHandler{}
		emitter.RegisterHandler(everything)
		emitter.Subscribe(gradedOnly, TypeAttemptGraded)

		graded, err := NewEvent(TypeAttemptGraded, AttemptGraded{LearnerID: "learner-1"})
		require.NoError(t, err)
		reset, err := NewEvent(TypeProgressReset, ProgressReset{LearnerID: "learner-1"})
		require.NoError(t, err)

		require.NoError(t, emitter.EmitEvent(context.Background(), graded))
		require.NoError(t, emitter.EmitEvent(context.Background(), reset))

		assert.Equal(t, 2, everything.HandledCount)
		assert.Equal(t, 1, gradedOnly.HandledCount)
		assert.Same(t, graded, gradedOnly.LastEvent)
	})

	t.Run("every handler failure is reported", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		errA := errors.New("analytics down")
		errB := errors.New("metrics down")
		emitter.RegisterHandler(&MockEventHandler{HandlerError: errA})
		emitter.Subscribe(&MockEventHandler{HandlerError: errB}, TypeAttemptGraded)

		event, err := NewEvent(TypeAttemptGraded, AttemptGraded{})
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
	})
}

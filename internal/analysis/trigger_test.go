package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-coach-go/internal/models"
)

// countingScorer records how often each call id was attempted.
type countingScorer struct {
	mu       sync.Mutex
	attempts map[string]int
	errs     map[string]error
	done     chan string
}

func newCountingScorer() *countingScorer {
	return &countingScorer{
		attempts: make(map[string]int),
		errs:     make(map[string]error),
		done:     make(chan string, 16),
	}
}

func (s *countingScorer) Analyze(ctx context.Context, callID string) (*models.Analysis, error) {
	s.mu.Lock()
	s.attempts[callID]++
	err := s.errs[callID]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	s.done <- callID
	return &models.Analysis{CallID: callID}, nil
}

func (s *countingScorer) attemptsFor(callID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[callID]
}

func TestTriggerProcessesEnqueuedCall(t *testing.T) {
	scorer := newCountingScorer()
	trigger := NewTrigger(scorer, 4, 0)
	defer trigger.Close()

	require.NoError(t, trigger.Enqueue("c1"))

	select {
	case id := <-scorer.done:
		assert.Equal(t, "c1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("analysis was never run")
	}
}

func TestTriggerQueueFull(t *testing.T) {
	// Block the worker so the queue cannot drain.
	started := make(chan struct{})
	blocked := make(chan struct{})
	var startedOnce sync.Once
	blockingScorer := scorerFunc(func(ctx context.Context, callID string) (*models.Analysis, error) {
		startedOnce.Do(func() { close(started) })
		<-blocked
		return &models.Analysis{CallID: callID}, nil
	})

	trigger := NewTrigger(blockingScorer, 1, 0)
	defer func() {
		close(blocked)
		trigger.Close()
	}()

	require.NoError(t, trigger.Enqueue("held-by-worker"))
	<-started
	require.NoError(t, trigger.Enqueue("fills-queue"))

	err := trigger.Enqueue("overflow")
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTriggerClosedRejectsJobs(t *testing.T) {
	trigger := NewTrigger(newCountingScorer(), 4, 0)
	trigger.Close()

	assert.ErrorIs(t, trigger.Enqueue("c1"), ErrTriggerClosed)

	// Closing twice is safe.
	trigger.Close()
}

func TestTriggerDoesNotRetryTerminalErrors(t *testing.T) {
	scorer := newCountingScorer()
	scorer.errs["gone"] = ErrCallNotFound
	scorer.errs["short"] = ErrInsufficientTranscript
	scorer.errs["garbage"] = ErrInvalidModelOutput

	trigger := NewTrigger(scorer, 8, 3)
	require.NoError(t, trigger.Enqueue("gone"))
	require.NoError(t, trigger.Enqueue("short"))
	require.NoError(t, trigger.Enqueue("garbage"))
	trigger.Close()

	assert.Equal(t, 1, scorer.attemptsFor("gone"))
	assert.Equal(t, 1, scorer.attemptsFor("short"))
	assert.Equal(t, 1, scorer.attemptsFor("garbage"))
}

func TestTriggerRetriesTransientErrors(t *testing.T) {
	scorer := newCountingScorer()
	scorer.errs["flaky"] = errors.New("connection reset")

	trigger := NewTrigger(scorer, 4, 2)
	require.NoError(t, trigger.Enqueue("flaky"))
	trigger.Close()

	// initial attempt plus two retries
	assert.Equal(t, 3, scorer.attemptsFor("flaky"))
}

// scorerFunc adapts a function to the Scorer interface.
type scorerFunc func(ctx context.Context, callID string) (*models.Analysis, error)

func (f scorerFunc) Analyze(ctx context.Context, callID string) (*models.Analysis, error) {
	return f(ctx, callID)
}

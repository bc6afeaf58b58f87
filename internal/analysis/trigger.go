package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"call-coach-go/internal/models"
)

// Trigger queue errors. A full queue is reported to the caller instead of
// silently dropping the job; ingestion still succeeds either way.
var (
	ErrQueueFull     = errors.New("analysis queue is full")
	ErrTriggerClosed = errors.New("analysis trigger is closed")
)

// Scorer is what the trigger runs for each enqueued call.
type Scorer interface {
	Analyze(ctx context.Context, callID string) (*models.Analysis, error)
}

// Trigger decouples scoring from ingestion: ingestion enqueues a call id and
// returns immediately, a single worker drains the queue and retries
// transient scoring failures with exponential backoff.
type Trigger struct {
	scorer     Scorer
	jobs       chan string
	maxRetries uint64

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewTrigger starts the analysis worker with a bounded queue.
func NewTrigger(scorer Scorer, queueSize int, maxRetries int) *Trigger {
	if queueSize <= 0 {
		queueSize = 64
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	t := &Trigger{
		scorer:     scorer,
		jobs:       make(chan string, queueSize),
		maxRetries: uint64(maxRetries),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// Enqueue submits a call for asynchronous scoring. Never blocks: a full
// queue returns ErrQueueFull so the caller can log the loss.
func (t *Trigger) Enqueue(callID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTriggerClosed
	}

	select {
	case t.jobs <- callID:
		logrus.WithField("call_id", callID).Debug("Analysis enqueued")
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for the worker to drain the queue.
func (t *Trigger) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.jobs)
	t.mu.Unlock()

	t.wg.Wait()
}

func (t *Trigger) run() {
	defer t.wg.Done()

	for callID := range t.jobs {
		t.process(callID)
	}
}

func (t *Trigger) process(callID string) {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), t.maxRetries)

	operation := func() error {
		_, err := t.scorer.Analyze(context.Background(), callID)
		if err == nil {
			return nil
		}
		// Terminal conditions are not retryable.
		if errors.Is(err, ErrCallNotFound) ||
			errors.Is(err, ErrInsufficientTranscript) ||
			errors.Is(err, ErrInvalidModelOutput) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		logrus.WithError(err).WithFields(logrus.Fields{
			"call_id":  callID,
			"retry_in": next,
		}).Warn("Analysis attempt failed, retrying")
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		logrus.WithError(err).WithField("call_id", callID).Error("Analysis failed permanently")
	}
}

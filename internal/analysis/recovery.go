package analysis

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"call-coach-go/internal/models"
)

// DefaultStuckThreshold is how long a call may sit in analyzing before it is
// considered abandoned. Scoring a single call finishes well inside this.
const DefaultStuckThreshold = 10 * time.Minute

// RecoveryStore is the persistence contract stuck-call recovery needs.
type RecoveryStore interface {
	FindStuckAnalyzingCalls(before time.Time) ([]models.Call, error)
	UpdateCallStatus(id, status string) error
}

// Enqueuer schedules a call for asynchronous scoring.
type Enqueuer interface {
	Enqueue(callID string) error
}

// RecoverStuckCalls resets calls abandoned mid-scoring back to pending and
// re-enqueues them. A call is abandoned when the process died between the
// analyzing mark and the terminal status; nothing else will ever move it
// again. olderThan bounds how recent a call may be and still count as stuck;
// zero means every analyzing call qualifies, which is the right call on boot
// when no scoring can be in flight. Returns the number of calls reset.
func RecoverStuckCalls(store RecoveryStore, enq Enqueuer, olderThan time.Duration) (int, error) {
	stuck, err := store.FindStuckAnalyzingCalls(time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to list stuck calls: %w", err)
	}

	recovered := 0
	for i := range stuck {
		call := &stuck[i]
		if err := store.UpdateCallStatus(call.ID, models.CallStatusPending); err != nil {
			logrus.WithError(err).WithField("call_id", call.ID).Error("Failed to reset stuck call")
			continue
		}
		recovered++

		if enq == nil {
			continue
		}
		if err := enq.Enqueue(call.ID); err != nil {
			logrus.WithError(err).WithField("call_id", call.ID).Warn("Stuck call reset but not re-enqueued")
		}
	}

	if recovered > 0 {
		logrus.WithField("count", recovered).Info("Recovered calls stuck in analyzing")
	}
	return recovered, nil
}

package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-coach-go/internal/models"
)

type fakeRecoveryStore struct {
	stuck        []models.Call
	listErr      error
	statusErrFor string
	statuses     map[string]string
}

func (f *fakeRecoveryStore) FindStuckAnalyzingCalls(before time.Time) ([]models.Call, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Call
	for _, c := range f.stuck {
		if c.UpdatedAt.Before(before) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRecoveryStore) UpdateCallStatus(id, status string) error {
	if id == f.statusErrFor {
		return errors.New("update failed")
	}
	if f.statuses == nil {
		f.statuses = make(map[string]string)
	}
	f.statuses[id] = status
	return nil
}

type recordingEnqueuer struct {
	ids []string
	err error
}

func (e *recordingEnqueuer) Enqueue(callID string) error {
	if e.err != nil {
		return e.err
	}
	e.ids = append(e.ids, callID)
	return nil
}

func TestRecoverStuckCalls(t *testing.T) {
	store := &fakeRecoveryStore{
		stuck: []models.Call{
			{ID: "old", Status: models.CallStatusAnalyzing, UpdatedAt: time.Now().Add(-time.Hour)},
			{ID: "recent", Status: models.CallStatusAnalyzing, UpdatedAt: time.Now()},
		},
	}
	enq := &recordingEnqueuer{}

	recovered, err := RecoverStuckCalls(store, enq, DefaultStuckThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)
	assert.Equal(t, models.CallStatusPending, store.statuses["old"])
	assert.NotContains(t, store.statuses, "recent")
	assert.Equal(t, []string{"old"}, enq.ids)
}

func TestRecoverStuckCallsZeroAgeTakesEverything(t *testing.T) {
	store := &fakeRecoveryStore{
		stuck: []models.Call{
			{ID: "a", Status: models.CallStatusAnalyzing, UpdatedAt: time.Now().Add(-time.Second)},
			{ID: "b", Status: models.CallStatusAnalyzing, UpdatedAt: time.Now().Add(-time.Hour)},
		},
	}
	enq := &recordingEnqueuer{}

	recovered, err := RecoverStuckCalls(store, enq, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, recovered)
	assert.ElementsMatch(t, []string{"a", "b"}, enq.ids)
}

func TestRecoverStuckCallsResetFailureSkipsCall(t *testing.T) {
	store := &fakeRecoveryStore{
		stuck: []models.Call{
			{ID: "bad", Status: models.CallStatusAnalyzing, UpdatedAt: time.Now().Add(-time.Hour)},
			{ID: "good", Status: models.CallStatusAnalyzing, UpdatedAt: time.Now().Add(-time.Hour)},
		},
		statusErrFor: "bad",
	}
	enq := &recordingEnqueuer{}

	recovered, err := RecoverStuckCalls(store, enq, DefaultStuckThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)
	assert.Equal(t, []string{"good"}, enq.ids)
}

func TestRecoverStuckCallsEnqueueFailureStillResets(t *testing.T) {
	store := &fakeRecoveryStore{
		stuck: []models.Call{
			{ID: "old", Status: models.CallStatusAnalyzing, UpdatedAt: time.Now().Add(-time.Hour)},
		},
	}
	enq := &recordingEnqueuer{err: errors.New("queue full")}

	recovered, err := RecoverStuckCalls(store, enq, DefaultStuckThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)
	assert.Equal(t, models.CallStatusPending, store.statuses["old"])
}

func TestRecoverStuckCallsListError(t *testing.T) {
	store := &fakeRecoveryStore{listErr: errors.New("db down")}

	_, err := RecoverStuckCalls(store, nil, DefaultStuckThreshold)
	assert.Error(t, err)
}

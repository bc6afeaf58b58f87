package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"call-coach-go/internal/config"
	"call-coach-go/internal/ingest"
	"call-coach-go/internal/matcher"
	"call-coach-go/internal/metrics"
	"call-coach-go/internal/models"
	"call-coach-go/internal/provider"
	"call-coach-go/internal/repository"
	"call-coach-go/internal/syncer"
)

type emptyFetcher struct{}

func (emptyFetcher) MeetingsSince(ctx context.Context, since time.Time, max int) ([]provider.Meeting, error) {
	return nil, nil
}

type nopEnqueuer struct{}

func (nopEnqueuer) Enqueue(string) error { return nil }

// ctxFetcher fails when the sync runs on an already-cancelled context.
type ctxFetcher struct {
	calls int
}

func (f *ctxFetcher) MeetingsSince(ctx context.Context, since time.Time, max int) ([]provider.Meeting, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func newTestScheduler(t *testing.T) *Scheduler {
	return newTestSchedulerWithFetcher(t, emptyFetcher{})
}

func newTestSchedulerWithFetcher(t *testing.T, fetcher syncer.Fetcher) *Scheduler {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.SalesRep{},
		&models.Call{},
		&models.UnmatchedCall{},
		&models.Analysis{},
		&models.WebhookLog{},
		&models.Setting{},
	))

	repo := repository.New(db)
	match := matcher.New(repo)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	ing := ingest.NewService(repo, match, nopEnqueuer{}, m)
	sync := syncer.New(repo, match, ing, fetcher, m, 24, 100)

	return NewScheduler(&config.SchedulerConfig{IntervalMinutes: 60}, sync)
}

func TestSchedulerStartStop(t *testing.T) {
	sched := newTestScheduler(t)

	require.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())
	assert.False(t, sched.GetNextRun().IsZero())

	// Double start is rejected.
	assert.Error(t, sched.Start())

	require.NoError(t, sched.Stop())
	assert.False(t, sched.IsRunning())
	assert.True(t, sched.GetNextRun().IsZero())

	// Stopping twice is a no-op.
	require.NoError(t, sched.Stop())
}

func TestSchedulerRestart(t *testing.T) {
	fetcher := &ctxFetcher{}
	sched := newTestSchedulerWithFetcher(t, fetcher)

	require.NoError(t, sched.Start())
	require.NoError(t, sched.Stop())

	// A manual sync between stop and restart still works.
	result, err := sched.RunOnce(6)
	require.NoError(t, err)
	assert.True(t, result.Success)

	// A restarted scheduler must not run on the cancelled context and must
	// not leave two cron entries behind.
	require.NoError(t, sched.Start())
	assert.Len(t, sched.cron.Entries(), 1)

	result, err = sched.RunOnce(6)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, fetcher.calls)

	require.NoError(t, sched.Stop())
}

func TestSchedulerRunOnce(t *testing.T) {
	sched := newTestScheduler(t)

	result, err := sched.RunOnce(6)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.Processed)

	last := sched.GetLastRun()
	require.NotNil(t, last)
	assert.Equal(t, result, last)
}

package syncer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"call-coach-go/internal/ingest"
	"call-coach-go/internal/matcher"
	"call-coach-go/internal/metrics"
	"call-coach-go/internal/models"
	"call-coach-go/internal/provider"
	"call-coach-go/internal/repository"
)

// fakeFetcher serves a fixed meeting batch and records the watermark it was
// asked for.
type fakeFetcher struct {
	meetings []provider.Meeting
	since    time.Time
	err      error
}

func (f *fakeFetcher) MeetingsSince(ctx context.Context, since time.Time, max int) ([]provider.Meeting, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return f.meetings, nil
}

func newTestSync(t *testing.T, fetcher *fakeFetcher) (*Service, *repository.Repository) {
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
	return New(repo, match, ing, fetcher, m, 24, 100), repo
}

type nopEnqueuer struct{}

func (nopEnqueuer) Enqueue(string) error { return nil }

func testMeeting(externalID, organizerEmail string) provider.Meeting {
	m := provider.Meeting{
		ExternalID:   externalID,
		Title:        "Call " + externalID,
		StartTime:    time.Now().Add(-2 * time.Hour),
		Duration:     1800,
		Transcript:   strings.Repeat("Speaker 1: let's review the pipeline. ", 5),
		RecordingURL: "https://example.com/" + externalID,
		Participants: []models.Participant{
			{Name: "Organizer", Email: organizerEmail},
			{Name: "Bob Client", Email: "bob@client.com"},
		},
		CreatedAt: time.Now().Add(-time.Hour),
	}
	if organizerEmail != "" {
		m.Organizer = &provider.Organizer{Name: "Organizer", Email: organizerEmail}
	}
	return m
}

func TestRunMixedBatch(t *testing.T) {
	fetcher := &fakeFetcher{meetings: []provider.Meeting{
		testMeeting("rec-import", "jane@acme.com"),
		testMeeting("rec-outsider", "stranger@client.com"),
		testMeeting("rec-unmatched", ""),
	}}
	svc, repo := newTestSync(t, fetcher)

	rep := &models.SalesRep{Name: "Jane", Email: "jane@acme.com"}
	require.NoError(t, repo.CreateRep(rep))

	result, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Zero(t, result.Errors)
	require.Len(t, result.Calls, 3)

	assert.Equal(t, CallImported, result.Calls[0].Status)
	assert.Equal(t, CallSkipped, result.Calls[1].Status)
	assert.Contains(t, result.Calls[1].Reason, "not an active sales rep")
	assert.Equal(t, CallSkipped, result.Calls[2].Status)
	assert.Contains(t, result.Calls[2].Reason, "stored for review")

	_, total, err := repo.ListCalls(0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	pending, err := repo.ListUnmatchedCalls(false)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRunSkipsExistingCalls(t *testing.T) {
	fetcher := &fakeFetcher{meetings: []provider.Meeting{
		testMeeting("rec-1", "jane@acme.com"),
	}}
	svc, repo := newTestSync(t, fetcher)

	rep := &models.SalesRep{Name: "Jane", Email: "jane@acme.com"}
	require.NoError(t, repo.CreateRep(rep))

	first, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, first.Imported)

	second, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, second.Imported)
	assert.Equal(t, 1, second.Skipped)
	assert.Contains(t, second.Calls[0].Reason, "already exists")
}

func TestRunBackfillsTeamOnExisting(t *testing.T) {
	meeting := testMeeting("rec-1", "jane@acme.com")
	fetcher := &fakeFetcher{meetings: []provider.Meeting{meeting}}
	svc, repo := newTestSync(t, fetcher)

	rep := &models.SalesRep{Name: "Jane", Email: "jane@acme.com"}
	require.NoError(t, repo.CreateRep(rep))

	_, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)

	// The provider later learns the team; the next sync backfills it.
	meeting.Organizer.Team = "enterprise"
	fetcher.meetings = []provider.Meeting{meeting}

	result, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Calls[0].Reason, "backfilled team")

	call, err := repo.GetCallByExternalID("rec-1")
	require.NoError(t, err)
	assert.Equal(t, "enterprise", call.Team)
}

func TestRunTeamAllowList(t *testing.T) {
	meeting := testMeeting("rec-1", "jane@acme.com")
	meeting.Organizer.Team = "smb"
	fetcher := &fakeFetcher{meetings: []provider.Meeting{meeting}}
	svc, repo := newTestSync(t, fetcher)

	rep := &models.SalesRep{
		Name:  "Jane",
		Email: "jane@acme.com",
		Teams: []string{"enterprise"},
	}
	require.NoError(t, repo.CreateRep(rep))

	result, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Calls[0].Reason, "not on allow-list")

	// An empty allow-list admits every team.
	rep.Teams = nil
	require.NoError(t, repo.UpdateRep(rep))
	meeting.ExternalID = "rec-2"
	fetcher.meetings = []provider.Meeting{meeting}

	result, err = svc.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestRunWatermark(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, repo := newTestSync(t, fetcher)

	// No synced calls yet: default lookback applies.
	_, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), fetcher.since, time.Minute)

	// Explicit hours override.
	_, err = svc.Run(context.Background(), 6)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(-6*time.Hour), fetcher.since, time.Minute)

	// With a synced call, its synced_at becomes the watermark.
	rep := &models.SalesRep{Name: "Jane", Email: "jane@acme.com"}
	require.NoError(t, repo.CreateRep(rep))
	syncedAt := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	require.NoError(t, repo.CreateCall(&models.Call{
		ExternalID: "rec-prev",
		RepID:      rep.ID,
		Title:      "Previous",
		StartedAt:  time.Now().Add(-time.Hour),
		Status:     models.CallStatusCompleted,
		SyncedAt:   syncedAt,
	}))

	_, err = svc.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.WithinDuration(t, syncedAt, fetcher.since, time.Second)
}

func TestRunFetchErrorFailsWholeRun(t *testing.T) {
	fetcher := &fakeFetcher{err: assert.AnError}
	svc, _ := newTestSync(t, fetcher)

	_, err := svc.Run(context.Background(), 0)
	assert.Error(t, err)
}

func TestRunIsolatesPerCallErrors(t *testing.T) {
	fetcher := &fakeFetcher{meetings: []provider.Meeting{
		testMeeting("rec-1", "jane@acme.com"),
		testMeeting("rec-2", "jane@acme.com"),
	}}
	svc, repo := newTestSync(t, fetcher)

	// Breaking the rep table makes every organizer lookup fail; the run must
	// still visit every meeting and report per-call errors.
	require.NoError(t, repo.DB().Migrator().DropTable(&models.SalesRep{}))

	result, err := svc.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Errors)
	require.Len(t, result.Calls, 2)
	assert.Equal(t, CallErrored, result.Calls[0].Status)
	assert.Equal(t, CallErrored, result.Calls[1].Status)
}

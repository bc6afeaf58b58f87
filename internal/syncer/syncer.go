// Package syncer reconciles the local call store with the recording
// provider: it polls the paginated listing API from a watermark and pushes
// every new recording through the same matching, dedup and triage logic as
// the webhook path.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"call-coach-go/internal/ingest"
	"call-coach-go/internal/matcher"
	"call-coach-go/internal/metrics"
	"call-coach-go/internal/provider"
	"call-coach-go/internal/repository"
)

// Per-call sync statuses.
const (
	CallImported = "imported"
	CallSkipped  = "skipped"
	CallErrored  = "error"
)

// Fetcher is the provider listing contract the sync job needs.
type Fetcher interface {
	MeetingsSince(ctx context.Context, since time.Time, max int) ([]provider.Meeting, error)
}

// CallStatus is the per-recording detail of one sync run.
type CallStatus struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// Result aggregates one sync run. One failing call increments Errors but
// never aborts the rest of the batch.
type Result struct {
	Success      bool         `json:"success"`
	Processed    int          `json:"processed"`
	Imported     int          `json:"imported"`
	Skipped      int          `json:"skipped"`
	Errors       int          `json:"errors"`
	LastSyncTime time.Time    `json:"lastSyncTime"`
	Calls        []CallStatus `json:"calls"`
	DurationMs   int64        `json:"duration_ms"`
}

// Service is the polling sync job.
type Service struct {
	repo          *repository.Repository
	matcher       *matcher.Matcher
	ingest        *ingest.Service
	fetcher       Fetcher
	metrics       *metrics.Metrics
	lookbackHours int
	syncLimit     int
}

func New(repo *repository.Repository, m *matcher.Matcher, ing *ingest.Service, fetcher Fetcher, metrics *metrics.Metrics, lookbackHours, syncLimit int) *Service {
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	if syncLimit <= 0 {
		syncLimit = 100
	}
	return &Service{
		repo:          repo,
		matcher:       m,
		ingest:        ing,
		fetcher:       fetcher,
		metrics:       metrics,
		lookbackHours: lookbackHours,
		syncLimit:     syncLimit,
	}
}

// Run executes one sync pass. hours > 0 overrides the watermark with an
// explicit lookback window; otherwise the most recent successful sync time
// is used, defaulting to the configured lookback when no call was ever
// synced.
func (s *Service) Run(ctx context.Context, hours int) (*Result, error) {
	start := time.Now()
	s.metrics.SyncRuns.Inc()

	since, err := s.watermark(hours)
	if err != nil {
		return nil, err
	}

	logrus.WithField("since", since.Format(time.RFC3339)).Info("Starting provider sync")

	meetings, err := s.fetcher.MeetingsSince(ctx, since, s.syncLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meetings: %w", err)
	}

	result := &Result{
		Success:      true,
		Processed:    len(meetings),
		LastSyncTime: time.Now(),
		Calls:        make([]CallStatus, 0, len(meetings)),
	}

	for i := range meetings {
		status := s.processMeeting(&meetings[i])
		result.Calls = append(result.Calls, status)
		switch status.Status {
		case CallImported:
			result.Imported++
		case CallSkipped:
			result.Skipped++
		default:
			result.Errors++
			s.metrics.SyncErrors.Inc()
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	logrus.WithFields(logrus.Fields{
		"processed": result.Processed,
		"imported":  result.Imported,
		"skipped":   result.Skipped,
		"errors":    result.Errors,
	}).Info("Provider sync completed")

	return result, nil
}

func (s *Service) watermark(hours int) (time.Time, error) {
	if hours > 0 {
		return time.Now().Add(-time.Duration(hours) * time.Hour), nil
	}
	last, ok, err := s.repo.LastSyncTime()
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Now().Add(-time.Duration(s.lookbackHours) * time.Hour), nil
	}
	return last, nil
}

// processMeeting applies the import filters and persists one recording.
// Every branch returns a status; errors are contained here so one bad
// recording cannot abort the batch.
func (s *Service) processMeeting(m *provider.Meeting) CallStatus {
	log := logrus.WithField("external_id", m.ExternalID)

	existing, err := s.repo.GetCallByExternalID(m.ExternalID)
	if err != nil && err != repository.ErrNotFound {
		return CallStatus{ExternalID: m.ExternalID, Status: CallErrored, Reason: err.Error()}
	}
	if existing != nil {
		if existing.Team == "" && m.Organizer != nil && m.Organizer.Team != "" {
			if err := s.repo.BackfillCallTeam(existing.ID, m.Organizer.Team); err != nil {
				log.WithError(err).Warn("Failed to backfill team label")
			} else {
				return CallStatus{
					ExternalID: m.ExternalID,
					Status:     CallSkipped,
					Reason:     fmt.Sprintf("already exists - backfilled team %q", m.Organizer.Team),
				}
			}
		}
		return CallStatus{ExternalID: m.ExternalID, Status: CallSkipped, Reason: "already exists"}
	}

	organizerEmail := ""
	if m.Organizer != nil {
		organizerEmail = m.Organizer.Email
	}

	// The organizer must be an active rep, and the recording's team must be
	// on the rep's allow-list (empty list allows everything).
	if organizerEmail != "" {
		organizer, err := s.matcher.Organizer(organizerEmail)
		if err != nil {
			return CallStatus{ExternalID: m.ExternalID, Status: CallErrored, Reason: err.Error()}
		}
		if organizer == nil {
			return CallStatus{
				ExternalID: m.ExternalID,
				Status:     CallSkipped,
				Reason:     fmt.Sprintf("recorded by %s who is not an active sales rep", organizerEmail),
			}
		}
		if m.Organizer.Team != "" || len(organizer.Teams) > 0 {
			if !organizer.AllowsTeam(m.Organizer.Team) {
				return CallStatus{
					ExternalID: m.ExternalID,
					Status:     CallSkipped,
					Reason:     fmt.Sprintf("team %q not on allow-list for %s", m.Organizer.Team, organizer.Email),
				}
			}
		}
	}

	// Informational only: single-invitee recordings are imported either
	// way, but the speaker signal helps operators spot link-based joins.
	if len(m.Participants) == 1 {
		if matcher.DetectMultipleSpeakers(m.Transcript) {
			log.Info("Single invitee but transcript shows multiple speakers, importing")
		} else {
			log.Info("Solo recording, importing anyway")
		}
	}

	match, err := s.matcher.Match(m.Participants, organizerEmail)
	if err != nil {
		return CallStatus{ExternalID: m.ExternalID, Status: CallErrored, Reason: err.Error()}
	}

	if !match.Matched {
		res, err := s.ingest.StoreUnmatchedMeeting(m)
		if err != nil {
			return CallStatus{ExternalID: m.ExternalID, Status: CallErrored, Reason: err.Error()}
		}
		if res.Status == ingest.StatusDuplicate {
			return CallStatus{ExternalID: m.ExternalID, Status: CallSkipped, Reason: "already stored for review"}
		}
		return CallStatus{ExternalID: m.ExternalID, Status: CallSkipped, Reason: "no sales rep matched - stored for review"}
	}

	res, err := s.ingest.ImportMeeting(m, match.Rep)
	if err != nil {
		return CallStatus{ExternalID: m.ExternalID, Status: CallErrored, Reason: err.Error()}
	}
	if res.Status == ingest.StatusDuplicate {
		return CallStatus{ExternalID: m.ExternalID, Status: CallSkipped, Reason: "already exists"}
	}

	return CallStatus{
		ExternalID: m.ExternalID,
		Status:     CallImported,
		Reason:     fmt.Sprintf("matched to %s", match.Rep.Email),
	}
}

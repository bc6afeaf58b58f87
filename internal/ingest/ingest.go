// Package ingest persists validated, matched calls and routes unmatched ones
// to the review queue. It is shared by the webhook and sync paths.
package ingest

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"call-coach-go/internal/analysis"
	"call-coach-go/internal/matcher"
	"call-coach-go/internal/metrics"
	"call-coach-go/internal/models"
	"call-coach-go/internal/repository"
	"call-coach-go/internal/webhook"
)

// Ingestion outcome statuses.
const (
	StatusImported  = "imported"
	StatusDuplicate = "duplicate"
	StatusUnmatched = "unmatched"
)

// Result describes what happened to one inbound call.
type Result struct {
	Status             string `json:"status"`
	CallID             string `json:"call_id,omitempty"`
	UnmatchedCallID    string `json:"unmatched_call_id,omitempty"`
	ExternalID         string `json:"external_id"`
	RepMatched         bool   `json:"rep_matched"`
	RepEmail           string `json:"rep_email,omitempty"`
	ClientParticipants int    `json:"client_participants"`
	AnalysisTriggered  bool   `json:"analysis_triggered"`
}

// Enqueuer schedules asynchronous scoring for a persisted call.
type Enqueuer interface {
	Enqueue(callID string) error
}

// Service is the call persister.
type Service struct {
	repo    *repository.Repository
	matcher *matcher.Matcher
	trigger Enqueuer
	metrics *metrics.Metrics
}

func NewService(repo *repository.Repository, m *matcher.Matcher, trigger Enqueuer, metrics *metrics.Metrics) *Service {
	return &Service{repo: repo, matcher: m, trigger: trigger, metrics: metrics}
}

// IngestWebhook processes one validated, sanitized webhook payload: dedup,
// rep matching, persistence, and (fire-and-forget) analysis scheduling.
// Duplicates — whether caught by the advisory check or by losing the insert
// race — are a success outcome, not an error.
func (s *Service) IngestWebhook(p *webhook.Payload) (*Result, error) {
	exists, err := s.repo.CallExists(p.CallID)
	if err != nil {
		return nil, err
	}
	if exists {
		s.metrics.CallsDuplicate.Inc()
		return &Result{Status: StatusDuplicate, ExternalID: p.CallID}, nil
	}

	match, err := s.matcher.Match(p.Meeting.Participants, "")
	if err != nil {
		return nil, err
	}

	if !match.Matched {
		return s.storeUnmatched(p)
	}

	call := &models.Call{
		ExternalID:   p.CallID,
		RepID:        match.Rep.ID,
		Title:        p.Meeting.Title,
		StartedAt:    p.StartedAt(),
		Duration:     p.Meeting.Duration,
		Transcript:   p.Meeting.Transcript,
		RecordingURL: p.Meeting.RecordingURL,
		Participants: datatypes.NewJSONSlice(p.Meeting.Participants),
		Status:       models.CallStatusCompleted,
		SyncedAt:     time.Now(),
	}

	if err := s.repo.CreateCall(call); err != nil {
		// Lost the check-then-insert race; the unique index is the source
		// of truth, so report the duplicate outcome.
		if errors.Is(err, repository.ErrDuplicateCall) {
			s.metrics.CallsDuplicate.Inc()
			return &Result{Status: StatusDuplicate, ExternalID: p.CallID}, nil
		}
		return nil, err
	}

	s.metrics.CallsImported.Inc()

	result := &Result{
		Status:             StatusImported,
		CallID:             call.ID,
		ExternalID:         p.CallID,
		RepMatched:         true,
		RepEmail:           match.Rep.Email,
		ClientParticipants: len(match.ClientParticipants),
	}
	result.AnalysisTriggered = s.scheduleAnalysis(call.ID, p.Meeting.Transcript)
	return result, nil
}

func (s *Service) storeUnmatched(p *webhook.Payload) (*Result, error) {
	unmatched := &models.UnmatchedCall{
		ExternalID:   p.CallID,
		Title:        p.Meeting.Title,
		StartedAt:    p.StartedAt(),
		Duration:     p.Meeting.Duration,
		Transcript:   p.Meeting.Transcript,
		RecordingURL: p.Meeting.RecordingURL,
		Participants: datatypes.NewJSONSlice(p.Meeting.Participants),
	}

	if err := s.repo.CreateUnmatchedCall(unmatched); err != nil {
		if errors.Is(err, repository.ErrDuplicateCall) {
			s.metrics.CallsDuplicate.Inc()
			return &Result{Status: StatusDuplicate, ExternalID: p.CallID}, nil
		}
		return nil, err
	}

	s.metrics.CallsUnmatched.Inc()
	logrus.WithFields(logrus.Fields{
		"external_id":  p.CallID,
		"unmatched_id": unmatched.ID,
	}).Warn("No sales rep matched, call stored for review")

	return &Result{
		Status:          StatusUnmatched,
		UnmatchedCallID: unmatched.ID,
		ExternalID:      p.CallID,
	}, nil
}

// scheduleAnalysis enqueues scoring when the transcript carries enough
// signal. Enqueue failures are logged but never fail ingestion: "call
// recorded" and "call scored" are independent promises.
func (s *Service) scheduleAnalysis(callID, transcript string) bool {
	if len(transcript) < analysis.MinTranscriptChars {
		logrus.WithField("call_id", callID).Info("Transcript below minimum length, skipping analysis")
		return false
	}
	if err := s.trigger.Enqueue(callID); err != nil {
		logrus.WithError(err).WithField("call_id", callID).Error("Failed to enqueue analysis")
		return false
	}
	return true
}

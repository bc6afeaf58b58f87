package ingest

import (
	"errors"
	"time"

	"gorm.io/datatypes"

	"call-coach-go/internal/models"
	"call-coach-go/internal/provider"
	"call-coach-go/internal/repository"
)

// ImportMeeting persists one provider meeting for an already-matched rep.
// Used by the sync path after its organizer and team filters have passed.
func (s *Service) ImportMeeting(m *provider.Meeting, rep *models.SalesRep) (*Result, error) {
	team := ""
	if m.Organizer != nil {
		team = m.Organizer.Team
	}

	call := &models.Call{
		ExternalID:   m.ExternalID,
		RepID:        rep.ID,
		Title:        m.Title,
		StartedAt:    m.StartTime,
		Duration:     m.Duration,
		Transcript:   m.Transcript,
		RecordingURL: m.RecordingURL,
		Participants: datatypes.NewJSONSlice(m.Participants),
		Team:         team,
		Status:       models.CallStatusCompleted,
		SyncedAt:     time.Now(),
	}

	if err := s.repo.CreateCall(call); err != nil {
		if errors.Is(err, repository.ErrDuplicateCall) {
			s.metrics.CallsDuplicate.Inc()
			return &Result{Status: StatusDuplicate, ExternalID: m.ExternalID}, nil
		}
		return nil, err
	}

	s.metrics.CallsImported.Inc()

	result := &Result{
		Status:     StatusImported,
		CallID:     call.ID,
		ExternalID: m.ExternalID,
		RepMatched: true,
		RepEmail:   rep.Email,
	}
	result.AnalysisTriggered = s.scheduleAnalysis(call.ID, m.Transcript)
	return result, nil
}

// StoreUnmatchedMeeting queues a provider meeting nobody claimed for manual
// review.
func (s *Service) StoreUnmatchedMeeting(m *provider.Meeting) (*Result, error) {
	unmatched := &models.UnmatchedCall{
		ExternalID:   m.ExternalID,
		Title:        m.Title,
		StartedAt:    m.StartTime,
		Duration:     m.Duration,
		Transcript:   m.Transcript,
		RecordingURL: m.RecordingURL,
		Participants: datatypes.NewJSONSlice(m.Participants),
	}

	if err := s.repo.CreateUnmatchedCall(unmatched); err != nil {
		if errors.Is(err, repository.ErrDuplicateCall) {
			s.metrics.CallsDuplicate.Inc()
			return &Result{Status: StatusDuplicate, ExternalID: m.ExternalID}, nil
		}
		return nil, err
	}

	s.metrics.CallsUnmatched.Inc()
	return &Result{
		Status:          StatusUnmatched,
		UnmatchedCallID: unmatched.ID,
		ExternalID:      m.ExternalID,
	}, nil
}

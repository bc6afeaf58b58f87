package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"call-coach-go/internal/models"
	"call-coach-go/internal/repository"
)

// Sentinel errors for the scoring pipeline. All three are terminal: retrying
// cannot fix them.
var (
	ErrCallNotFound           = errors.New("call not found")
	ErrInsufficientTranscript = errors.New("transcript is too short or missing")
)

// MinTranscriptChars is the minimum transcript length worth scoring; below
// this there is too little signal and no LLM request is made.
const MinTranscriptChars = 50

// Store is the persistence contract the scoring service needs.
type Store interface {
	GetCall(id string) (*models.Call, error)
	GetAnalysisByCallID(callID string) (*models.Analysis, error)
	CreateAnalysis(analysis *models.Analysis) error
	UpdateCallStatus(id, status string) error
}

// LLM is the chat-completion contract the scoring service needs.
type LLM interface {
	ChatJSON(ctx context.Context, system, user string) (*Completion, error)
}

// Service scores call transcripts and persists the result.
type Service struct {
	store     Store
	llm       LLM
	framework *Framework
}

func NewService(store Store, llm LLM) *Service {
	return &Service{store: store, llm: llm, framework: DefaultFramework()}
}

// Analyze scores one call. A call that already has an analysis is a no-op
// returning the existing row, so retriggered analysis never spends twice.
// The call's status ends at completed, or failed if anything breaks after
// scoring has started.
func (s *Service) Analyze(ctx context.Context, callID string) (*models.Analysis, error) {
	call, err := s.store.GetCall(callID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, err
	}

	if existing, err := s.store.GetAnalysisByCallID(callID); err != nil {
		return nil, err
	} else if existing != nil {
		logrus.WithField("call_id", callID).Info("Call already analyzed, returning existing result")
		return existing, nil
	}

	transcript := strings.TrimSpace(call.Transcript)
	if len(transcript) < MinTranscriptChars {
		return nil, ErrInsufficientTranscript
	}

	if err := s.store.UpdateCallStatus(callID, models.CallStatusAnalyzing); err != nil {
		return nil, err
	}

	analysis, err := s.score(ctx, call, transcript)
	if err != nil {
		if statusErr := s.store.UpdateCallStatus(callID, models.CallStatusFailed); statusErr != nil {
			logrus.WithError(statusErr).WithField("call_id", callID).Error("Failed to mark call failed")
		}
		return nil, err
	}

	if err := s.store.UpdateCallStatus(callID, models.CallStatusCompleted); err != nil {
		logrus.WithError(err).WithField("call_id", callID).Error("Failed to mark call completed")
	}

	logrus.WithFields(logrus.Fields{
		"call_id": callID,
		"score":   analysis.OverallScore,
	}).Info("Call analysis completed")
	return analysis, nil
}

func (s *Service) score(ctx context.Context, call *models.Call, transcript string) (*models.Analysis, error) {
	completion, err := s.llm.ChatJSON(ctx, s.framework.SystemPrompt(), buildUserMessage(call, transcript))
	if err != nil {
		return nil, err
	}

	result, err := ParseResult(completion.Content)
	if err != nil {
		return nil, err
	}

	categoryScores := make([]models.CategoryScore, 0, len(result.CategoryScores))
	for _, cs := range result.CategoryScores {
		categoryScores = append(categoryScores, models.CategoryScore{
			Category: cs.Category,
			Score:    cs.Score,
			Feedback: cs.Feedback,
		})
	}

	analysis := &models.Analysis{
		CallID:         call.ID,
		OverallScore:   result.OverallScore,
		CategoryScores: datatypes.NewJSONSlice(categoryScores),
		Sentiment:      SentimentFor(result.OverallScore),
		KeyTopics:      datatypes.NewJSONSlice(KeyTopics(result.CategoryScores)),
		Summary:        result.Summary,
		Strengths:      result.Strengths,
		Improvements:   result.Improvements,
		Model:          completion.Model,
		TokensUsed:     completion.TokensUsed,
		AnalyzedAt:     time.Now(),
	}

	if err := s.store.CreateAnalysis(analysis); err != nil {
		// Lost an insert race against a concurrent trigger; the winner's
		// row is the result.
		if errors.Is(err, repository.ErrDuplicateAnalysis) {
			existing, getErr := s.store.GetAnalysisByCallID(call.ID)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}
	return analysis, nil
}

// buildUserMessage assembles the transcript plus available call metadata.
func buildUserMessage(call *models.Call, transcript string) string {
	var b strings.Builder
	b.WriteString("# SALES CALL TRANSCRIPT\n\n")
	if call.Rep != nil {
		fmt.Fprintf(&b, "**Sales Rep:** %s\n", call.Rep.Name)
	}
	if !call.StartedAt.IsZero() {
		fmt.Fprintf(&b, "**Date:** %s\n", call.StartedAt.Format("2006-01-02"))
	}
	if call.Duration > 0 {
		fmt.Fprintf(&b, "**Duration:** %d minutes\n", call.Duration/60)
	}
	b.WriteString("\n---\n\n")
	b.WriteString(transcript)
	return b.String()
}

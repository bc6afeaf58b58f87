package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-coach-go/internal/models"
	"call-coach-go/internal/repository"
)

// fakeStore is an in-memory Store recording status transitions.
type fakeStore struct {
	calls    map[string]*models.Call
	analyses map[string]*models.Analysis
	statuses []string

	// when set, CreateAnalysis loses the insert race against this row
	raceWinner *models.Analysis
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		calls:    make(map[string]*models.Call),
		analyses: make(map[string]*models.Analysis),
	}
}

func (f *fakeStore) GetCall(id string) (*models.Call, error) {
	call, ok := f.calls[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return call, nil
}

func (f *fakeStore) GetAnalysisByCallID(callID string) (*models.Analysis, error) {
	return f.analyses[callID], nil
}

func (f *fakeStore) CreateAnalysis(analysis *models.Analysis) error {
	if f.raceWinner != nil {
		f.analyses[analysis.CallID] = f.raceWinner
		return repository.ErrDuplicateAnalysis
	}
	if _, exists := f.analyses[analysis.CallID]; exists {
		return repository.ErrDuplicateAnalysis
	}
	f.analyses[analysis.CallID] = analysis
	return nil
}

func (f *fakeStore) UpdateCallStatus(id, status string) error {
	f.statuses = append(f.statuses, status)
	if call, ok := f.calls[id]; ok {
		call.Status = status
	}
	return nil
}

// fakeLLM returns a canned completion or an error.
type fakeLLM struct {
	content string
	err     error
	calls   int
}

func (f *fakeLLM) ChatJSON(ctx context.Context, system, user string) (*Completion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Completion{Content: f.content, Model: "gpt-4o", TokensUsed: 1234}, nil
}

func seedAnalyzableCall(store *fakeStore, id string) *models.Call {
	call := &models.Call{
		ID:         id,
		ExternalID: "rec-" + id,
		Title:      "Discovery call",
		StartedAt:  time.Now().Add(-time.Hour),
		Duration:   1800,
		Transcript: strings.Repeat("Speaker 1: tell me about your current setup. ", 5),
		Status:     models.CallStatusCompleted,
		Rep:        &models.SalesRep{Name: "Jane", Email: "jane@acme.com"},
	}
	store.calls[id] = call
	return call
}

func TestAnalyzeHappyPath(t *testing.T) {
	store := newFakeStore()
	seedAnalyzableCall(store, "c1")
	llm := &fakeLLM{content: goodModelOutput}
	svc := NewService(store, llm)

	result, err := svc.Analyze(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 78, result.OverallScore)
	assert.Equal(t, models.SentimentPositive, result.Sentiment)
	assert.Equal(t, "gpt-4o", result.Model)
	assert.Equal(t, 1234, result.TokensUsed)
	assert.Contains(t, result.KeyTopics, "Strong: Opening & Rapport")
	assert.Contains(t, result.KeyTopics, "Needs work: Intent Setting")

	// analyzing first, completed after scoring
	assert.Equal(t, []string{models.CallStatusAnalyzing, models.CallStatusCompleted}, store.statuses)
	assert.NotNil(t, store.analyses["c1"])
}

func TestAnalyzeCallNotFound(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeLLM{content: goodModelOutput})

	_, err := svc.Analyze(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestAnalyzeExistingAnalysisIsNoOp(t *testing.T) {
	store := newFakeStore()
	seedAnalyzableCall(store, "c1")
	existing := &models.Analysis{ID: "a1", CallID: "c1", OverallScore: 55}
	store.analyses["c1"] = existing

	llm := &fakeLLM{content: goodModelOutput}
	svc := NewService(store, llm)

	result, err := svc.Analyze(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, existing, result)
	assert.Zero(t, llm.calls, "no LLM request for an already-analyzed call")
	assert.Empty(t, store.statuses)
}

func TestAnalyzeShortTranscript(t *testing.T) {
	store := newFakeStore()
	call := seedAnalyzableCall(store, "c1")
	call.Transcript = "too short"

	llm := &fakeLLM{content: goodModelOutput}
	svc := NewService(store, llm)

	_, err := svc.Analyze(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrInsufficientTranscript)
	assert.Zero(t, llm.calls)
}

func TestAnalyzeInvalidModelOutputMarksFailed(t *testing.T) {
	store := newFakeStore()
	seedAnalyzableCall(store, "c1")
	svc := NewService(store, &fakeLLM{content: "I think the call went quite well overall."})

	_, err := svc.Analyze(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrInvalidModelOutput)
	assert.Equal(t, []string{models.CallStatusAnalyzing, models.CallStatusFailed}, store.statuses)
	assert.Nil(t, store.analyses["c1"])
}

func TestAnalyzeLLMErrorMarksFailed(t *testing.T) {
	store := newFakeStore()
	seedAnalyzableCall(store, "c1")
	svc := NewService(store, &fakeLLM{err: errors.New("rate limited")})

	_, err := svc.Analyze(context.Background(), "c1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidModelOutput)
	assert.Equal(t, []string{models.CallStatusAnalyzing, models.CallStatusFailed}, store.statuses)
}

func TestAnalyzeLostInsertRaceReturnsWinner(t *testing.T) {
	store := newFakeStore()
	seedAnalyzableCall(store, "c1")
	winner := &models.Analysis{ID: "a-winner", CallID: "c1", OverallScore: 66}
	store.raceWinner = winner
	svc := NewService(store, &fakeLLM{content: goodModelOutput})

	result, err := svc.Analyze(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, winner, result)
}

package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKey string

func (k staticKey) ProviderAPIKey() (string, error) { return string(k), nil }

const pageOne = `{
  "items": [
    {
      "meeting_title": "Discovery call",
      "created_at": "2026-08-10T10:00:00Z",
      "recording_id": 101,
      "recording_start_time": "2026-08-10T09:00:00Z",
      "recording_end_time": "2026-08-10T09:30:00Z",
      "transcript": "Speaker 1: hello",
      "share_url": "https://fathom.video/101",
      "calendar_invitees": [
        {"name": "Jane Rep", "email": "jane@acme.com"},
        {"name": "Bob Client", "email": "bob@client.com"}
      ],
      "recorded_by": {"name": "Jane Rep", "email": "jane@acme.com", "team": "enterprise"}
    }
  ],
  "next_cursor": "page-2"
}`

const pageTwo = `{
  "items": [
    {
      "title": "Old call",
      "created_at": "2026-01-01T10:00:00Z",
      "recording_id": 42,
      "recording_start_time": "2026-01-01T09:00:00Z",
      "recording_end_time": "2026-01-01T09:20:00Z",
      "transcript": "Speaker 1: hi",
      "share_url": "https://fathom.video/42",
      "calendar_invitees": []
    }
  ],
  "next_cursor": "page-3"
}`

func TestMeetingsSince(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "/meetings", r.URL.Path)
		require.Equal(t, "secret-key", r.Header.Get("X-Api-Key"))

		switch r.URL.Query().Get("cursor") {
		case "":
			_, _ = w.Write([]byte(pageOne))
		case "page-2":
			_, _ = w.Write([]byte(pageTwo))
		default:
			t.Fatalf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, staticKey("secret-key"))

	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	meetings, err := client.MeetingsSince(context.Background(), since, 100)
	require.NoError(t, err)

	// The second page's only recording predates the watermark, which ends
	// the walk.
	assert.Equal(t, 2, requests)
	require.Len(t, meetings, 1)

	m := meetings[0]
	assert.Equal(t, "101", m.ExternalID)
	assert.Equal(t, "Discovery call", m.Title)
	assert.Equal(t, 1800, m.Duration)
	assert.Equal(t, "https://fathom.video/101", m.RecordingURL)
	require.Len(t, m.Participants, 2)
	require.NotNil(t, m.Organizer)
	assert.Equal(t, "enterprise", m.Organizer.Team)
}

func TestMeetingsSinceRespectsMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pageOne))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, staticKey("k"))
	meetings, err := client.MeetingsSince(context.Background(), time.Time{}, 1)
	require.NoError(t, err)
	assert.Len(t, meetings, 1)
}

func TestMeetingsSinceNoAPIKey(t *testing.T) {
	client := NewClient("http://localhost:0", time.Second, staticKey(""))

	_, err := client.MeetingsSince(context.Background(), time.Time{}, 10)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestMeetingsSinceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, staticKey("wrong"))
	_, err := client.MeetingsSince(context.Background(), time.Time{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items": [], "next_cursor": ""}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, staticKey("k"))
	assert.NoError(t, client.TestConnection(context.Background()))
}

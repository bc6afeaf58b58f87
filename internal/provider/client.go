// Package provider implements the HTTP client for the meeting-recording
// service's external API: cursor-paginated meeting listings plus a
// lightweight credential check.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"call-coach-go/internal/models"
)

// ErrNoAPIKey is returned when no provider credential is configured.
var ErrNoAPIKey = errors.New("provider API key is not configured")

const defaultPageSize = 50

// KeySource supplies the provider API key at request time, so credential
// updates made through the settings API take effect without a restart.
type KeySource interface {
	ProviderAPIKey() (string, error)
}

// Organizer identifies who recorded a meeting and under which team.
type Organizer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Team  string `json:"team"`
}

// Meeting is one recording in normalized form.
type Meeting struct {
	ExternalID   string
	Title        string
	StartTime    time.Time
	Duration     int
	Transcript   string
	RecordingURL string
	Participants []models.Participant
	Organizer    *Organizer
	CreatedAt    time.Time
}

// apiMeeting mirrors the provider's raw listing item.
type apiMeeting struct {
	Title              string `json:"title"`
	MeetingTitle       string `json:"meeting_title"`
	CreatedAt          string `json:"created_at"`
	RecordingID        int64  `json:"recording_id"`
	RecordingStartTime string `json:"recording_start_time"`
	RecordingEndTime   string `json:"recording_end_time"`
	Transcript         string `json:"transcript"`
	ShareURL           string `json:"share_url"`
	CalendarInvitees   []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"calendar_invitees"`
	RecordedBy *Organizer `json:"recorded_by"`
}

type listResponse struct {
	Items      []apiMeeting `json:"items"`
	NextCursor string       `json:"next_cursor"`
}

// Client talks to the provider's external API.
type Client struct {
	baseURL string
	keys    KeySource
	client  *http.Client
}

// NewClient creates a provider API client with an explicit request timeout.
func NewClient(baseURL string, timeout time.Duration, keys KeySource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		keys:    keys,
		client:  &http.Client{Timeout: timeout},
	}
}

// MeetingsSince returns up to max meetings created after the given watermark,
// walking cursor pages until a page yields no more qualifying recordings.
func (c *Client) MeetingsSince(ctx context.Context, since time.Time, max int) ([]Meeting, error) {
	if max <= 0 {
		max = defaultPageSize
	}

	var all []Meeting
	cursor := ""
	for {
		page, nextCursor, err := c.listPage(ctx, defaultPageSize, cursor)
		if err != nil {
			return nil, err
		}

		qualifying := 0
		for _, raw := range page {
			meeting, err := normalize(raw)
			if err != nil {
				continue
			}
			if !meeting.CreatedAt.After(since) {
				continue
			}
			qualifying++
			all = append(all, meeting)
			if len(all) >= max {
				return all, nil
			}
		}

		// Stop once a page ran dry of new recordings or pagination ends.
		if qualifying < len(page) || nextCursor == "" {
			return all, nil
		}
		cursor = nextCursor
	}
}

// TestConnection performs one authenticated single-item listing to confirm
// the configured credential works.
func (c *Client) TestConnection(ctx context.Context) error {
	_, _, err := c.listPage(ctx, 1, "")
	return err
}

func (c *Client) listPage(ctx context.Context, limit int, cursor string) ([]apiMeeting, string, error) {
	apiKey, err := c.keys.ProviderAPIKey()
	if err != nil {
		return nil, "", err
	}
	if apiKey == "" {
		return nil, "", ErrNoAPIKey
	}

	endpoint, err := url.Parse(c.baseURL + "/meetings")
	if err != nil {
		return nil, "", fmt.Errorf("invalid provider base URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("provider API error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed listResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, "", fmt.Errorf("failed to decode provider response: %w", err)
	}
	return parsed.Items, parsed.NextCursor, nil
}

// normalize converts a raw listing item to the internal meeting shape.
func normalize(raw apiMeeting) (Meeting, error) {
	start, err := time.Parse(time.RFC3339, raw.RecordingStartTime)
	if err != nil {
		return Meeting{}, fmt.Errorf("bad recording_start_time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, raw.RecordingEndTime)
	if err != nil {
		return Meeting{}, fmt.Errorf("bad recording_end_time: %w", err)
	}
	created, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		created = start
	}

	title := raw.MeetingTitle
	if title == "" {
		title = raw.Title
	}

	participants := make([]models.Participant, 0, len(raw.CalendarInvitees))
	for _, inv := range raw.CalendarInvitees {
		participants = append(participants, models.Participant{Name: inv.Name, Email: inv.Email})
	}

	return Meeting{
		ExternalID:   strconv.FormatInt(raw.RecordingID, 10),
		Title:        title,
		StartTime:    start,
		Duration:     int(end.Sub(start).Seconds()),
		Transcript:   raw.Transcript,
		RecordingURL: raw.ShareURL,
		Participants: participants,
		Organizer:    raw.RecordedBy,
		CreatedAt:    created,
	}, nil
}

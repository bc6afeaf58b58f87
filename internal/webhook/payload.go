package webhook

import "call-coach-go/internal/models"

// Webhook event names the provider may send.
const (
	EventCallCompleted = "call-completed"
	EventCallStarted   = "call-started"
	EventCallFailed    = "call-failed"
)

// Meeting is the nested meeting object of an inbound webhook payload.
type Meeting struct {
	Title        string               `json:"title"`
	StartTime    string               `json:"start_time"`
	Duration     int                  `json:"duration"`
	Transcript   string               `json:"transcript"`
	RecordingURL string               `json:"recording_url"`
	Participants []models.Participant `json:"participants"`
}

// Payload is the JSON body of an inbound call webhook.
type Payload struct {
	Event     string  `json:"event"`
	CallID    string  `json:"call_id"`
	Meeting   Meeting `json:"meeting"`
	Timestamp string  `json:"timestamp"`
}

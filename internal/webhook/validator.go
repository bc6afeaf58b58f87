package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "x-provider-signature"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// VerifySignature checks a hex HMAC-SHA256 signature over the raw body.
// Fails closed: an empty secret or missing signature is never valid.
func VerifySignature(secret string, body []byte, signatureHex string) bool {
	if secret == "" || signatureHex == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHex))
}

// ValidationError reports every offending field of a payload at once, so
// operators can fix a malformed sender in one pass.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.MissingFields, ", "))
}

// ValidatePayload checks presence and basic typing of every required payload
// field. Returns nil when the payload is well formed.
func ValidatePayload(p *Payload) *ValidationError {
	var missing []string

	switch p.Event {
	case EventCallCompleted, EventCallStarted, EventCallFailed:
	case "":
		missing = append(missing, "event")
	default:
		missing = append(missing, "event (unknown: "+p.Event+")")
	}

	if strings.TrimSpace(p.CallID) == "" {
		missing = append(missing, "call_id")
	}

	m := p.Meeting
	if m.Title == "" {
		missing = append(missing, "meeting.title")
	}
	if m.StartTime == "" {
		missing = append(missing, "meeting.start_time")
	} else if _, err := time.Parse(time.RFC3339, m.StartTime); err != nil {
		missing = append(missing, "meeting.start_time (not ISO-8601)")
	}
	if m.Duration < 0 {
		missing = append(missing, "meeting.duration (negative)")
	}
	if strings.TrimSpace(m.Transcript) == "" {
		missing = append(missing, "meeting.transcript")
	}
	if m.RecordingURL == "" {
		missing = append(missing, "meeting.recording_url")
	}

	if len(m.Participants) == 0 {
		missing = append(missing, "meeting.participants")
	}
	for i, participant := range m.Participants {
		if participant.Name == "" {
			missing = append(missing, fmt.Sprintf("meeting.participants[%d].name", i))
		}
		if participant.Email == "" {
			missing = append(missing, fmt.Sprintf("meeting.participants[%d].email", i))
		} else if !emailPattern.MatchString(participant.Email) {
			missing = append(missing, fmt.Sprintf("meeting.participants[%d].email (invalid)", i))
		}
	}

	if len(missing) > 0 {
		return &ValidationError{MissingFields: missing}
	}
	return nil
}

// Sanitize normalizes a validated payload in place before persistence: trims
// whitespace, lowercases participant emails and clamps duration at zero.
func (p *Payload) Sanitize() {
	p.CallID = strings.TrimSpace(p.CallID)
	p.Meeting.Title = strings.TrimSpace(p.Meeting.Title)
	p.Meeting.Transcript = strings.TrimSpace(p.Meeting.Transcript)
	p.Meeting.RecordingURL = strings.TrimSpace(p.Meeting.RecordingURL)
	if p.Meeting.Duration < 0 {
		p.Meeting.Duration = 0
	}
	for i := range p.Meeting.Participants {
		p.Meeting.Participants[i].Name = strings.TrimSpace(p.Meeting.Participants[i].Name)
		p.Meeting.Participants[i].Email = strings.ToLower(strings.TrimSpace(p.Meeting.Participants[i].Email))
	}
}

// StartedAt returns the parsed meeting start time. Call only after
// ValidatePayload has accepted the payload.
func (p *Payload) StartedAt() time.Time {
	t, _ := time.Parse(time.RFC3339, p.Meeting.StartTime)
	return t
}

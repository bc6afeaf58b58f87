package models

// Participant is one attendee of a recorded meeting, as reported by the
// recording provider (calendar invitee or webhook participant).
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Package matcher resolves meeting participants to known sales reps.
//
// Matching is a pure lookup against the non-archived rows of the rep table;
// it never writes. Calls whose participants resolve to nobody are reported
// unmatched and land in the review queue downstream.
package matcher

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"call-coach-go/internal/models"
)

// RepFinder is the repository contract the matcher needs.
type RepFinder interface {
	FindActiveRepsByEmails(emails []string) ([]models.SalesRep, error)
	FindActiveRepByEmail(email string) (*models.SalesRep, error)
}

// Result is the outcome of matching one call's participants.
type Result struct {
	Matched            bool
	Rep                *models.SalesRep
	ClientParticipants []models.Participant
}

type Matcher struct {
	reps RepFinder
}

func New(reps RepFinder) *Matcher {
	return &Matcher{reps: reps}
}

// Match finds the active rep owning a call. When several participants map to
// active reps the organizer email wins if it is one of them; otherwise the
// first match in participant order is taken. Client participants are every
// participant whose email differs from the matched rep's.
func (m *Matcher) Match(participants []models.Participant, organizerEmail string) (*Result, error) {
	emails := make([]string, 0, len(participants))
	for _, p := range participants {
		emails = append(emails, strings.ToLower(p.Email))
	}

	reps, err := m.reps.FindActiveRepsByEmails(emails)
	if err != nil {
		return nil, fmt.Errorf("failed to match sales rep: %w", err)
	}
	if len(reps) == 0 {
		return &Result{Matched: false}, nil
	}

	byEmail := make(map[string]*models.SalesRep, len(reps))
	for i := range reps {
		byEmail[strings.ToLower(reps[i].Email)] = &reps[i]
	}

	// Organizer wins the tie when several participants are known reps.
	var matched *models.SalesRep
	if organizerEmail != "" {
		matched = byEmail[strings.ToLower(organizerEmail)]
	}
	if matched == nil {
		for _, p := range participants {
			if rep, ok := byEmail[strings.ToLower(p.Email)]; ok {
				matched = rep
				break
			}
		}
	}
	if matched == nil {
		return &Result{Matched: false}, nil
	}

	repEmail := strings.ToLower(matched.Email)
	clients := make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		if strings.ToLower(p.Email) != repEmail {
			clients = append(clients, p)
		}
	}

	logrus.WithFields(logrus.Fields{
		"rep_email": matched.Email,
		"clients":   len(clients),
	}).Debug("Matched call to sales rep")

	return &Result{Matched: true, Rep: matched, ClientParticipants: clients}, nil
}

// Organizer resolves the recording organizer to an active rep, or nil when
// the organizer is unknown or archived. Used by the sync path to decide
// whether a recording is eligible for import at all.
func (m *Matcher) Organizer(email string) (*models.SalesRep, error) {
	if email == "" {
		return nil, nil
	}
	rep, err := m.reps.FindActiveRepByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up organizer: %w", err)
	}
	return rep, nil
}

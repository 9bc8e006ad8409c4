package models

import (
	"time"
)

// Event is the read-only view of a catalog event needed at checkout.
type Event struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Venue                string    `json:"venue"`
	Price                float64   `json:"price"` // major currency units
	RegistrationDeadline time.Time `json:"registration_deadline"`
	OrganizerID          string    `json:"organizer_id"`
}

// RegistrationOpen reports whether checkout is allowed at now. An event
// without a deadline stays open.
func (e *Event) RegistrationOpen(now time.Time) bool {
	if e.RegistrationDeadline.IsZero() {
		return true
	}
	return !now.After(e.RegistrationDeadline)
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

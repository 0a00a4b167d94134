package models

import (
	"time"
)

// FollowUp is an immutable audit record of one state transition
type FollowUp struct {
	ID          string
	ComplaintID string
	AuthorityID *string // nil once the authority account is deleted
	Comment     string
	StateBefore State
	StateAfter  State
	ChangedAt   time.Time

	AuthorityName *string
}

// Transition is a request to move a complaint to a new state
type Transition struct {
	ComplaintID string
	AuthorityID string
	NewState    State
	Comment     string
}

// TransitionActivity is one row of the follow-up reporting read
type TransitionActivity struct {
	Date          time.Time `json:"date"`
	StateAfter    State     `json:"state_after"`
	AuthorityID   *string   `json:"authority_id"`
	AuthorityName *string   `json:"authority_name"`
	Changes       int64     `json:"changes"`
}

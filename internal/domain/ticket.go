package domain

import "time"

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	TicketStateOpen       TicketState = "open"
	TicketStateInProgress TicketState = "in_progress"
	TicketStateResolved   TicketState = "resolved"
)

// TicketPriority enumerates the priority declared by the requester.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Ticket is the external input record. The pipeline never mutates ticket
// content; only the Processed flag advances.
type Ticket struct {
	ID              int64
	Title           string
	Description     string
	Category        string
	Priority        TicketPriority
	State           TicketState
	CreatedAt       time.Time
	ResolvedAt      *time.Time
	ResolutionHours *float64
	Processed       bool
	ProcessedAt     *time.Time
}

// Resolved reports whether the ticket reached its terminal state.
func (t Ticket) Resolved() bool {
	return t.State == TicketStateResolved
}

// Text joins title and description for feature extraction.
func (t Ticket) Text() string {
	if t.Title == "" {
		return t.Description
	}
	if t.Description == "" {
		return t.Title
	}
	return t.Title + ". " + t.Description
}

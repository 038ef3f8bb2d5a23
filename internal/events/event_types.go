package events

import (
	"time"

	"github.com/Viru154/SEIRA/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRunStarted      EventType = "run_started"
	EventRunCompleted    EventType = "run_completed"
	EventTicketProcessed EventType = "ticket_processed"
	EventTicketFailed    EventType = "ticket_failed"
	EventDegradedMode    EventType = "degraded_mode"
)

// Event represents a pipeline event emitted by the orchestrator.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// RunStartedPayload payload.
type RunStartedPayload struct {
	PendingTickets int    `json:"pending_tickets"`
	Backend        string `json:"backend"`
}

// RunCompletedPayload payload.
type RunCompletedPayload struct {
	Summary domain.RunSummary `json:"summary"`
}

// TicketProcessedPayload payload.
type TicketProcessedPayload struct {
	Urgency    domain.Urgency `json:"urgency"`
	Complexity float64        `json:"complexity"`
	Valid      bool           `json:"valid"`
	DurationMS float64        `json:"duration_ms"`
}

// TicketFailedPayload payload.
type TicketFailedPayload struct {
	Attempts int    `json:"attempts"`
	Reason   string `json:"reason"`
}

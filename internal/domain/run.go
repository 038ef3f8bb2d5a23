package domain

import "time"

// RunStatus enumerates lifecycle states of a batch run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// UnitError records one failed ticket for the run summary.
type UnitError struct {
	TicketID int64  `json:"ticket_id"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts"`
}

// RunSummary is the terminal accounting of one batch run.
type RunSummary struct {
	Total        int         `json:"total"`
	Succeeded    int         `json:"succeeded"`
	Failed       int         `json:"failed"`
	Invalid      int         `json:"invalid"`
	DegradedUsed bool        `json:"degraded_used"`
	Errors       []UnitError `json:"errors,omitempty"`
}

// Run tracks one complete execution of the pipeline over a ticket set.
type Run struct {
	ID         string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Summary    RunSummary
}

// Progress is a non-blocking snapshot of an in-flight run.
type Progress struct {
	RunID           string  `json:"run_id"`
	Total           int     `json:"total"`
	Succeeded       int     `json:"succeeded"`
	Failed          int     `json:"failed"`
	Pending         int     `json:"pending"`
	PercentComplete float64 `json:"percent_complete"`
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Viru154/SEIRA/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// TicketRepository reads the external ticket store and advances the
// persisted processed flag the orchestrator resumes from.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// ListPending returns up to limit unprocessed tickets.
	ListPending(ctx context.Context, limit int) ([]domain.Ticket, error)
	// MarkProcessed commits the processed flag; committed flags survive
	// restarts.
	MarkProcessed(ctx context.Context, id int64, at time.Time) error
	CountAll(ctx context.Context) (int, error)
	CountPending(ctx context.Context) (int, error)
	ListProcessed(ctx context.Context) ([]domain.Ticket, error)
}

// AnalysisRepository persists per-ticket analyses. Upsert overwrites the
// whole record, so duplicate delivery of a work unit is safe.
type AnalysisRepository interface {
	Upsert(ctx context.Context, analysis *domain.Analysis) error
	GetByTicketID(ctx context.Context, ticketID int64) (*domain.Analysis, error)
	ListAll(ctx context.Context) ([]domain.Analysis, error)
}

// ResultsRepository persists the per-run aggregation output. ReplaceRun
// swaps the whole metrics+recommendation set in one transaction so readers
// never observe a mix of two runs.
type ResultsRepository interface {
	ReplaceRun(ctx context.Context, runID string, metrics []domain.CategoryMetrics, recommendations []domain.Recommendation) error
	ListRecommendationsByIAR(ctx context.Context) ([]domain.Recommendation, error)
	GetRecommendation(ctx context.Context, category string) (*domain.Recommendation, error)
	GetMetrics(ctx context.Context, category string) (*domain.CategoryMetrics, error)
}

// RunRepository tracks batch-run lifecycle records.
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	Finish(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)
}

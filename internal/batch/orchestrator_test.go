package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Viru154/SEIRA/internal/config"
	"github.com/Viru154/SEIRA/internal/domain"
	"github.com/Viru154/SEIRA/internal/nlp"
	"github.com/Viru154/SEIRA/internal/repository"
)

func testBatchConfig() config.BatchConfig {
	return config.BatchConfig{
		BatchSize:         10,
		WorkerConcurrency: 2,
		HardTimeout:       5 * time.Second,
		SoftTimeout:       4 * time.Second,
		MaxRetries:        2,
		RetryDelay:        time.Millisecond,
		WorkerMaxTasks:    100,
	}
}

func seedTickets(t *testing.T, store *repository.MemoryStore, descriptions ...string) {
	t.Helper()
	for _, description := range descriptions {
		ticket := &domain.Ticket{
			Title:       "Incidencia",
			Description: description,
			Category:    "pagos",
			Priority:    domain.TicketPriorityLow,
			CreatedAt:   time.Now().UTC(),
		}
		if err := store.Create(context.Background(), ticket); err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}
}

func newTestOrchestrator(store *repository.MemoryStore, analyses repository.AnalysisRepository) *Orchestrator {
	if analyses == nil {
		analyses = store
	}
	return NewOrchestrator(testBatchConfig(), Dependencies{
		Tickets:   store,
		Analyses:  analyses,
		Extractor: nlp.NewExtractor(nlp.NewSpanishBackend()),
		Queue:     NewMemoryQueue(),
	})
}

func TestOrchestratorProcessesAllPending(t *testing.T) {
	store := repository.NewMemoryStore()
	seedTickets(t, store,
		"el pago con tarjeta fue rechazado dos veces",
		"no llega el correo de confirmación del pedido",
		"la factura mensual muestra un cargo duplicado",
		"x", // below the validity gate
	)

	orchestrator := newTestOrchestrator(store, nil)
	summary, err := orchestrator.Run(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total != 4 || summary.Succeeded != 4 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Invalid != 1 {
		t.Errorf("Invalid = %d, want 1", summary.Invalid)
	}
	if summary.DegradedUsed {
		t.Error("full backend run must not report degraded use")
	}

	pending, err := store.CountPending(context.Background())
	if err != nil {
		t.Fatalf("CountPending: %v", err)
	}
	if pending != 0 {
		t.Fatalf("pending after run = %d, want 0", pending)
	}
	analyses, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(analyses) != 4 {
		t.Fatalf("analyses = %d, want 4", len(analyses))
	}
}

func TestOrchestratorNoPendingWork(t *testing.T) {
	store := repository.NewMemoryStore()
	orchestrator := newTestOrchestrator(store, nil)

	summary, err := orchestrator.Run(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 0 || summary.Succeeded != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v, want all zero", summary)
	}
}

// failingAnalyses rejects upserts for one ticket to exercise the retry path.
type failingAnalyses struct {
	repository.AnalysisRepository
	failFor int64
}

func (f *failingAnalyses) Upsert(ctx context.Context, analysis *domain.Analysis) error {
	if analysis.TicketID == f.failFor {
		return errors.New("simulated storage failure")
	}
	return f.AnalysisRepository.Upsert(ctx, analysis)
}

func TestOrchestratorBoundedRetries(t *testing.T) {
	store := repository.NewMemoryStore()
	seedTickets(t, store,
		"el pago con tarjeta fue rechazado dos veces",
		"no llega el correo de confirmación del pedido",
		"la factura mensual muestra un cargo duplicado",
	)

	orchestrator := newTestOrchestrator(store, &failingAnalyses{AnalysisRepository: store, failFor: 2})
	summary, err := orchestrator.Run(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v, want 2 succeeded / 1 failed", summary)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("errors = %v, want one entry", summary.Errors)
	}
	unitErr := summary.Errors[0]
	if unitErr.TicketID != 2 {
		t.Errorf("failed ticket = %d, want 2", unitErr.TicketID)
	}
	// First dispatch plus MaxRetries re-dispatches.
	if unitErr.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", unitErr.Attempts)
	}

	// The failed ticket keeps its pending flag for the next run.
	ticket, err := store.GetByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if ticket.Processed {
		t.Error("terminally failed ticket must stay unprocessed")
	}
}

func TestOrchestratorResumesFromProcessedFlag(t *testing.T) {
	store := repository.NewMemoryStore()
	seedTickets(t, store,
		"el pago con tarjeta fue rechazado dos veces",
		"no llega el correo de confirmación del pedido",
		"la factura mensual muestra un cargo duplicado",
	)
	now := time.Now().UTC()
	if err := store.MarkProcessed(context.Background(), 1, now); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	orchestrator := newTestOrchestrator(store, nil)
	summary, err := orchestrator.Run(context.Background(), "run-2")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total != 2 || summary.Succeeded != 2 {
		t.Fatalf("summary = %+v, want exactly the 2 pending tickets", summary)
	}
	if _, err := store.GetByTicketID(context.Background(), 1); !errors.Is(err, repository.ErrNotFound) {
		t.Error("already-processed ticket must not be re-analyzed")
	}
}

func TestOrchestratorDegradedBackendSurfacesInSummary(t *testing.T) {
	store := repository.NewMemoryStore()
	seedTickets(t, store, "la impresora de etiquetas dejó de responder")

	orchestrator := NewOrchestrator(testBatchConfig(), Dependencies{
		Tickets:   store,
		Analyses:  store,
		Extractor: nlp.NewExtractor(nlp.NewFallbackBackend()),
		Queue:     NewMemoryQueue(),
	})
	summary, err := orchestrator.Run(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.DegradedUsed {
		t.Fatal("fallback extraction must surface in the summary")
	}
}

func TestOrchestratorProgressAfterRun(t *testing.T) {
	store := repository.NewMemoryStore()
	seedTickets(t, store,
		"el pago con tarjeta fue rechazado dos veces",
		"no llega el correo de confirmación del pedido",
	)

	orchestrator := newTestOrchestrator(store, nil)
	if _, err := orchestrator.Run(context.Background(), "run-1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	progress := orchestrator.Progress()
	if progress.RunID != "run-1" {
		t.Errorf("RunID = %q", progress.RunID)
	}
	if progress.Total != 2 || progress.Succeeded != 2 || progress.Pending != 0 {
		t.Errorf("progress = %+v", progress)
	}
	if progress.PercentComplete != 100 {
		t.Errorf("PercentComplete = %v, want 100", progress.PercentComplete)
	}
}

func TestMemoryQueueLifecycle(t *testing.T) {
	queue := NewMemoryQueue()
	ctx := context.Background()

	unit := Unit{ID: "u-1", RunID: "run-1", TicketID: 9, Attempt: 1}
	handle, err := queue.Submit(ctx, unit)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	state, err := queue.Status(ctx, handle)
	if err != nil || state != UnitPending {
		t.Fatalf("Status = %v/%v, want PENDING", state, err)
	}
	if outcome, err := queue.Result(ctx, handle); err != nil || outcome != nil {
		t.Fatalf("Result before completion = %v/%v, want nil", outcome, err)
	}

	next, err := queue.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.ID != unit.ID {
		t.Fatalf("Next = %+v, want submitted unit", next)
	}
	if state, _ := queue.Status(ctx, handle); state != UnitDispatched {
		t.Fatalf("state after Next = %v, want DISPATCHED", state)
	}

	if err := queue.Complete(ctx, Outcome{Unit: unit, State: UnitSucceeded, Valid: true}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	outcome, err := queue.Result(ctx, handle)
	if err != nil || outcome == nil || outcome.State != UnitSucceeded {
		t.Fatalf("Result = %+v/%v, want SUCCEEDED", outcome, err)
	}

	if _, err := queue.Status(ctx, "missing"); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("Status(missing) = %v, want ErrUnknownUnit", err)
	}
}

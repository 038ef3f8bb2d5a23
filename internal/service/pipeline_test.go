package service

import (
	"context"
	"testing"
	"time"

	"github.com/Viru154/SEIRA/internal/batch"
	"github.com/Viru154/SEIRA/internal/config"
	"github.com/Viru154/SEIRA/internal/domain"
	"github.com/Viru154/SEIRA/internal/nlp"
	"github.com/Viru154/SEIRA/internal/repository"
	"github.com/Viru154/SEIRA/pkg/util"
)

func testConfig() config.Config {
	return config.Config{
		Scoring: config.ScoringConfig{
			WeightFrequency:       0.30,
			WeightComplexity:      0.25,
			WeightImpact:          0.25,
			WeightFeasibility:     0.20,
			AutomationFactor:      0.70,
			HourlyCostUSD:         25,
			ImplementationCostUSD: 10000,
			MaintenancePct:        0.15,
		},
		Batch: config.BatchConfig{
			BatchSize:         10,
			WorkerConcurrency: 2,
			HardTimeout:       5 * time.Second,
			SoftTimeout:       4 * time.Second,
			MaxRetries:        1,
			RetryDelay:        time.Millisecond,
			WorkerMaxTasks:    100,
		},
	}
}

func seed(t *testing.T, store *repository.MemoryStore, category, description string, resolved bool) {
	t.Helper()
	ticket := &domain.Ticket{
		Title:       "Incidencia reportada",
		Description: description,
		Category:    category,
		Priority:    domain.TicketPriorityMedium,
		State:       domain.TicketStateOpen,
		CreatedAt:   time.Now().UTC(),
	}
	if resolved {
		ticket.State = domain.TicketStateResolved
		now := time.Now().UTC()
		ticket.ResolvedAt = &now
	}
	if err := store.Create(context.Background(), ticket); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func newTestPipeline(t *testing.T, store *repository.MemoryStore) *PipelineService {
	t.Helper()
	cfg := testConfig()
	extractor := nlp.NewExtractor(nlp.NewSpanishBackend())
	orchestrator := batch.NewOrchestrator(cfg.Batch, batch.Dependencies{
		Tickets:   store,
		Analyses:  store,
		Extractor: extractor,
		Queue:     batch.NewMemoryQueue(),
	})
	pipeline, err := NewPipelineService(cfg, store, store, store, store.Runs(), extractor, orchestrator, nil)
	if err != nil {
		t.Fatalf("NewPipelineService: %v", err)
	}
	return pipeline
}

func TestRunPipelineEndToEnd(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store, "pagos", "el pago con tarjeta fue rechazado por fondos insuficientes", true)
	seed(t, store, "pagos", "el pago de la factura aparece duplicado en el extracto", true)
	seed(t, store, "pagos", "el pago por transferencia no se refleja en la cuenta", false)
	seed(t, store, "consultas", "necesito información sobre el horario de atención en sucursales", true)
	seed(t, store, "consultas", "consulta sobre los requisitos para abrir una cuenta nueva", false)

	pipeline := newTestPipeline(t, store)
	run, err := pipeline.RunPipeline(context.Background())
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}

	if run.Status != domain.RunStatusCompleted {
		t.Fatalf("Status = %q, want completed", run.Status)
	}
	if run.FinishedAt == nil {
		t.Fatal("FinishedAt not set")
	}
	if run.Summary.Total != 5 || run.Summary.Succeeded != 5 {
		t.Fatalf("summary = %+v", run.Summary)
	}

	recs, err := pipeline.RecommendationsSortedByIAR(context.Background())
	if err != nil {
		t.Fatalf("RecommendationsSortedByIAR: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recommendations = %d, want one per category", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i-1].IARScore < recs[i].IARScore {
			t.Fatalf("recommendations not sorted by IAR: %v then %v", recs[i-1].IARScore, recs[i].IARScore)
		}
	}
	for _, rec := range recs {
		if rec.RunID != run.ID {
			t.Errorf("recommendation %q carries run %q, want %q", rec.Category, rec.RunID, run.ID)
		}
		if rec.RecommendationText == "" || rec.Rationale == "" || rec.SuggestedApproach == "" {
			t.Errorf("recommendation %q has empty text fields", rec.Category)
		}
		if rec.Priority < 1 || rec.Priority > 10 {
			t.Errorf("priority = %d out of range", rec.Priority)
		}
	}

	metrics, rec, err := pipeline.CategoryDetail(context.Background(), "pagos")
	if err != nil {
		t.Fatalf("CategoryDetail: %v", err)
	}
	if metrics.TotalTickets != 3 || rec.Category != "pagos" {
		t.Fatalf("detail = %+v / %+v", metrics, rec)
	}
	if metrics.ResolutionRate != 0.6667 {
		t.Errorf("ResolutionRate = %v, want 0.6667", metrics.ResolutionRate)
	}

	analysis, err := pipeline.TicketAnalysis(context.Background(), 1)
	if err != nil {
		t.Fatalf("TicketAnalysis: %v", err)
	}
	if !analysis.Valid || analysis.TicketID != 1 {
		t.Fatalf("analysis = %+v", analysis)
	}

	progress, err := pipeline.BatchProgress(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("BatchProgress: %v", err)
	}
	if progress.Total != 5 || progress.Pending != 0 || progress.PercentComplete != 100 {
		t.Fatalf("progress = %+v", progress)
	}
}

func TestRunPipelineRerunReplacesResults(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store, "pagos", "el pago con tarjeta fue rechazado por fondos insuficientes", true)

	pipeline := newTestPipeline(t, store)
	first, err := pipeline.RunPipeline(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	seed(t, store, "envíos", "el paquete del pedido llegó con tres semanas de retraso", false)
	second, err := pipeline.RunPipeline(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("runs must have distinct identifiers")
	}
	// The second batch only processes the new ticket.
	if second.Summary.Total != 1 {
		t.Fatalf("second summary = %+v, want only the pending ticket", second.Summary)
	}

	recs, err := pipeline.RecommendationsSortedByIAR(context.Background())
	if err != nil {
		t.Fatalf("RecommendationsSortedByIAR: %v", err)
	}
	// Aggregation always covers the whole processed corpus, under the new
	// run's identifier.
	if len(recs) != 2 {
		t.Fatalf("recommendations = %d, want 2 categories", len(recs))
	}
	for _, rec := range recs {
		if rec.RunID != second.ID {
			t.Fatalf("recommendation %q carries run %q, want %q", rec.Category, rec.RunID, second.ID)
		}
	}
}

func TestNewPipelineServiceRejectsBadWeights(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.WeightImpact = 0.60

	store := repository.NewMemoryStore()
	extractor := nlp.NewExtractor(nlp.NewSpanishBackend())
	orchestrator := batch.NewOrchestrator(cfg.Batch, batch.Dependencies{
		Tickets:   store,
		Analyses:  store,
		Extractor: extractor,
		Queue:     batch.NewMemoryQueue(),
	})

	_, err := NewPipelineService(cfg, store, store, store, store.Runs(), extractor, orchestrator, nil)
	if err == nil {
		t.Fatal("expected construction to fail on invalid weights")
	}
	if !util.IsFatalConfig(err) {
		t.Fatalf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestBatchProgressUnknownRun(t *testing.T) {
	store := repository.NewMemoryStore()
	pipeline := newTestPipeline(t, store)

	if _, err := pipeline.BatchProgress(context.Background(), "no-such-run"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

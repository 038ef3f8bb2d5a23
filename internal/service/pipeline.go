package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Viru154/SEIRA/internal/analytics"
	"github.com/Viru154/SEIRA/internal/batch"
	"github.com/Viru154/SEIRA/internal/config"
	"github.com/Viru154/SEIRA/internal/domain"
	"github.com/Viru154/SEIRA/internal/nlp"
	"github.com/Viru154/SEIRA/internal/repository"
	"github.com/Viru154/SEIRA/pkg/util"
)

// PipelineService runs the full batch pipeline: feature extraction over all
// pending tickets, corpus-level keyword reranking, per-category aggregation,
// scoring and the atomic publication of the run's results.
type PipelineService struct {
	cfg          config.Config
	tickets      repository.TicketRepository
	analyses     repository.AnalysisRepository
	results      repository.ResultsRepository
	runs         repository.RunRepository
	extractor    *nlp.Extractor
	orchestrator *batch.Orchestrator
	engine       *analytics.Engine
	logger       *zap.Logger
}

// NewPipelineService wires the pipeline. Scoring configuration is validated
// here, before any run starts; malformed weights fail construction.
func NewPipelineService(
	cfg config.Config,
	tickets repository.TicketRepository,
	analyses repository.AnalysisRepository,
	results repository.ResultsRepository,
	runs repository.RunRepository,
	extractor *nlp.Extractor,
	orchestrator *batch.Orchestrator,
	logger *zap.Logger,
) (*PipelineService, error) {
	engine, err := analytics.NewEngine(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineService{
		cfg:          cfg,
		tickets:      tickets,
		analyses:     analyses,
		results:      results,
		runs:         runs,
		extractor:    extractor,
		orchestrator: orchestrator,
		engine:       engine,
		logger:       logger,
	}, nil
}

// RunPipeline executes one complete run and returns its record. Aggregation
// and scoring start only after every work unit reached a terminal state, and
// the results of the previous run stay readable until the new set commits.
func (s *PipelineService) RunPipeline(ctx context.Context) (*domain.Run, error) {
	run := &domain.Run{
		ID:        uuid.NewString(),
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, util.NewPersistenceError("create run record", err)
	}
	s.logger.Info("pipeline run started", zap.String("run_id", run.ID))

	summary, err := s.orchestrator.Run(ctx, run.ID)
	run.Summary = summary
	if err != nil {
		return s.failRun(ctx, run, err)
	}

	if err := s.rerankKeywords(ctx); err != nil {
		return s.failRun(ctx, run, err)
	}

	metrics, recommendations, err := s.scoreCategories(ctx, run.ID)
	if err != nil {
		return s.failRun(ctx, run, err)
	}

	// One transaction swaps the previous run's results for this run's.
	if err := s.results.ReplaceRun(ctx, run.ID, metrics, recommendations); err != nil {
		return s.failRun(ctx, run, util.NewPersistenceError("publish run results", err))
	}

	run.Status = domain.RunStatusCompleted
	now := time.Now().UTC()
	run.FinishedAt = &now
	if err := s.runs.Finish(ctx, run); err != nil {
		return nil, util.NewPersistenceError("finish run record", err)
	}
	s.logger.Info("pipeline run completed",
		zap.String("run_id", run.ID),
		zap.Int("categories", len(recommendations)),
		zap.Int("tickets", summary.Total))
	return run, nil
}

func (s *PipelineService) failRun(ctx context.Context, run *domain.Run, cause error) (*domain.Run, error) {
	run.Status = domain.RunStatusFailed
	now := time.Now().UTC()
	run.FinishedAt = &now
	if err := s.runs.Finish(ctx, run); err != nil {
		s.logger.Error("record failed run", zap.String("run_id", run.ID), zap.Error(err))
	}
	return run, cause
}

// rerankKeywords replaces each analysis's frequency-ranked keywords with
// TF-IDF scores computed over the closed batch corpus.
func (s *PipelineService) rerankKeywords(ctx context.Context) error {
	analyses, err := s.analyses.ListAll(ctx)
	if err != nil {
		return util.NewPersistenceError("load analyses for rerank", err)
	}

	docs := make([][]string, 0, len(analyses))
	indices := make([]int, 0, len(analyses))
	for i, analysis := range analyses {
		if !analysis.Valid {
			continue
		}
		docs = append(docs, s.extractor.Tokenize(analysis.CleanedText))
		indices = append(indices, i)
	}
	if len(docs) == 0 {
		return nil
	}

	ranked := nlp.NewTFIDF().Rerank(docs)
	for pos, i := range indices {
		if len(ranked[pos]) == 0 {
			// All terms fell outside the document-frequency bounds;
			// keep the raw frequency ranking.
			continue
		}
		analyses[i].Keywords = ranked[pos]
		if err := s.analyses.Upsert(ctx, &analyses[i]); err != nil {
			return util.NewPersistenceError("persist reranked keywords", err)
		}
	}
	return nil
}

// scoreCategories aggregates the processed corpus per category and scores
// each one. Categories with zero valid analyses are logged and skipped; they
// never abort the run.
func (s *PipelineService) scoreCategories(ctx context.Context, runID string) ([]domain.CategoryMetrics, []domain.Recommendation, error) {
	tickets, err := s.tickets.ListProcessed(ctx)
	if err != nil {
		return nil, nil, util.NewPersistenceError("load processed tickets", err)
	}

	samplesByCategory := make(map[string][]analytics.Sample)
	globalTotal := 0
	for _, ticket := range tickets {
		analysis, err := s.analyses.GetByTicketID(ctx, ticket.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, nil, util.NewPersistenceError("load analysis", err)
		}
		samplesByCategory[ticket.Category] = append(samplesByCategory[ticket.Category], analytics.Sample{
			Analysis:        *analysis,
			Resolved:        ticket.Resolved(),
			ResolutionHours: ticket.ResolutionHours,
		})
		globalTotal++
	}

	categories := make([]string, 0, len(samplesByCategory))
	for category := range samplesByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var (
		allMetrics      []domain.CategoryMetrics
		recommendations []domain.Recommendation
	)
	for _, category := range categories {
		metrics := analytics.Aggregate(category, samplesByCategory[category], runID)
		if metrics == nil {
			s.logger.Warn("category has no valid analyses; skipping",
				zap.String("category", category),
				zap.String("run_id", runID))
			continue
		}
		allMetrics = append(allMetrics, *metrics)
		recommendations = append(recommendations, s.engine.Score(*metrics, globalTotal, runID))
	}
	return allMetrics, recommendations, nil
}

// RecommendationsSortedByIAR lists every recommendation of the latest
// completed run, highest IAR first.
func (s *PipelineService) RecommendationsSortedByIAR(ctx context.Context) ([]domain.Recommendation, error) {
	return s.results.ListRecommendationsByIAR(ctx)
}

// CategoryDetail returns the metrics and recommendation for one category.
func (s *PipelineService) CategoryDetail(ctx context.Context, category string) (*domain.CategoryMetrics, *domain.Recommendation, error) {
	metrics, err := s.results.GetMetrics(ctx, category)
	if err != nil {
		return nil, nil, err
	}
	recommendation, err := s.results.GetRecommendation(ctx, category)
	if err != nil {
		return nil, nil, err
	}
	return metrics, recommendation, nil
}

// TicketAnalysis returns the stored analysis for one ticket.
func (s *PipelineService) TicketAnalysis(ctx context.Context, ticketID int64) (*domain.Analysis, error) {
	analysis, err := s.analyses.GetByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.NewInputError("no analysis for ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, util.NewPersistenceError("load analysis", err)
	}
	return analysis, nil
}

// BatchProgress reports the live progress of the in-flight run, or the
// stored summary of a finished one.
func (s *PipelineService) BatchProgress(ctx context.Context, runID string) (*domain.Progress, error) {
	live := s.orchestrator.Progress()
	if live.RunID == runID {
		return &live, nil
	}
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.NewInputError("unknown run", map[string]any{"run_id": runID})
		}
		return nil, util.NewPersistenceError("load run", err)
	}
	done := run.Summary.Succeeded + run.Summary.Failed
	progress := &domain.Progress{
		RunID:     run.ID,
		Total:     run.Summary.Total,
		Succeeded: run.Summary.Succeeded,
		Failed:    run.Summary.Failed,
		Pending:   run.Summary.Total - done,
	}
	if progress.Pending < 0 {
		progress.Pending = 0
	}
	if run.Summary.Total > 0 {
		progress.PercentComplete = float64(done) / float64(run.Summary.Total) * 100
	}
	return progress, nil
}

// Stop halts dispatch of new work units; in-flight units finish or time out.
func (s *PipelineService) Stop() {
	s.orchestrator.Stop()
}

// Summary formats a short human-readable digest of a finished run.
func Summary(run *domain.Run) string {
	return fmt.Sprintf("run %s: %d tickets, %d succeeded, %d failed, %d invalid",
		run.ID, run.Summary.Total, run.Summary.Succeeded, run.Summary.Failed, run.Summary.Invalid)
}

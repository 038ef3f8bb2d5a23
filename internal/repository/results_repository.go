package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Viru154/SEIRA/internal/domain"
)

type resultsRepository struct {
	pool *pgxpool.Pool
}

// NewResultsRepository instantiates the postgres-backed results repository.
func NewResultsRepository(pool *pgxpool.Pool) ResultsRepository {
	return &resultsRepository{pool: pool}
}

// ReplaceRun swaps the full metrics and recommendation set inside one
// transaction. On any failure the previous run's data stays intact.
func (r *resultsRepository) ReplaceRun(ctx context.Context, runID string, metrics []domain.CategoryMetrics, recommendations []domain.Recommendation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM category_metrics`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM recommendations`); err != nil {
		return err
	}

	for i := range metrics {
		if err := insertMetrics(ctx, tx, &metrics[i]); err != nil {
			return err
		}
	}
	for i := range recommendations {
		if err := insertRecommendation(ctx, tx, &recommendations[i]); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertMetrics(ctx context.Context, tx pgx.Tx, m *domain.CategoryMetrics) error {
	urgency, err := json.Marshal(m.Urgency)
	if err != nil {
		return err
	}
	sentiment, err := json.Marshal(m.Sentiment)
	if err != nil {
		return err
	}
	keywords, err := json.Marshal(m.TopKeywords)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO category_metrics (category, run_id, total_tickets, complexity_mean,
            complexity_std, urgency_counts, sentiment_counts, resolution_rate,
            repetitiveness_score, uniformity_score, top_keywords, annual_hours,
            avg_resolution_hours)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err = tx.Exec(ctx, query,
		m.Category, m.RunID, m.TotalTickets, m.ComplexityMean, m.ComplexityStd,
		urgency, sentiment, m.ResolutionRate, m.RepetitivenessScore,
		m.UniformityScore, keywords, m.AnnualHours, m.AvgResolutionHours,
	)
	return err
}

func insertRecommendation(ctx context.Context, tx pgx.Tx, rec *domain.Recommendation) error {
	const query = `
        INSERT INTO recommendations (category, run_id, frequency_score, complexity_score,
            impact_score, feasibility_score, iar_score, level, annual_savings_usd,
            maintenance_annual_usd, roi_percent, payback_months, recommendation_text,
            rationale, suggested_approach, priority, total_tickets, computed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`
	_, err := tx.Exec(ctx, query,
		rec.Category, rec.RunID, rec.FrequencyScore, rec.ComplexityScore,
		rec.ImpactScore, rec.FeasibilityScore, rec.IARScore, rec.Level,
		rec.ROI.AnnualSavingsUSD, rec.ROI.MaintenanceAnnualUSD, rec.ROI.ROIPercent,
		rec.ROI.PaybackMonths, rec.RecommendationText, rec.Rationale,
		rec.SuggestedApproach, rec.Priority, rec.TotalTickets, rec.ComputedAt,
	)
	return err
}

const recommendationColumns = `category, run_id, frequency_score, complexity_score,
       impact_score, feasibility_score, iar_score, level, annual_savings_usd,
       maintenance_annual_usd, roi_percent, payback_months, recommendation_text,
       rationale, suggested_approach, priority, total_tickets, computed_at`

func (r *resultsRepository) ListRecommendationsByIAR(ctx context.Context) ([]domain.Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations ORDER BY iar_score DESC, category`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

func (r *resultsRepository) GetRecommendation(ctx context.Context, category string) (*domain.Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE category=$1`
	rec, err := scanRecommendation(r.pool.QueryRow(ctx, query, category))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scanRecommendation(row pgx.Row) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	if err := row.Scan(
		&rec.Category, &rec.RunID, &rec.FrequencyScore, &rec.ComplexityScore,
		&rec.ImpactScore, &rec.FeasibilityScore, &rec.IARScore, &rec.Level,
		&rec.ROI.AnnualSavingsUSD, &rec.ROI.MaintenanceAnnualUSD, &rec.ROI.ROIPercent,
		&rec.ROI.PaybackMonths, &rec.RecommendationText, &rec.Rationale,
		&rec.SuggestedApproach, &rec.Priority, &rec.TotalTickets, &rec.ComputedAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *resultsRepository) GetMetrics(ctx context.Context, category string) (*domain.CategoryMetrics, error) {
	const query = `
        SELECT category, run_id, total_tickets, complexity_mean, complexity_std,
               urgency_counts, sentiment_counts, resolution_rate, repetitiveness_score,
               uniformity_score, top_keywords, annual_hours, avg_resolution_hours
        FROM category_metrics WHERE category=$1`
	var (
		m         domain.CategoryMetrics
		urgency   []byte
		sentiment []byte
		keywords  []byte
	)
	if err := r.pool.QueryRow(ctx, query, category).Scan(
		&m.Category, &m.RunID, &m.TotalTickets, &m.ComplexityMean, &m.ComplexityStd,
		&urgency, &sentiment, &m.ResolutionRate, &m.RepetitivenessScore,
		&m.UniformityScore, &keywords, &m.AnnualHours, &m.AvgResolutionHours,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(urgency, &m.Urgency); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sentiment, &m.Sentiment); err != nil {
		return nil, err
	}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &m.TopKeywords); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

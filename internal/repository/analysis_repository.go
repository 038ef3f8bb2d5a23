package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Viru154/SEIRA/internal/domain"
)

type analysisRepository struct {
	pool *pgxpool.Pool
}

// NewAnalysisRepository instantiates the postgres-backed analysis
// repository.
func NewAnalysisRepository(pool *pgxpool.Pool) AnalysisRepository {
	return &analysisRepository{pool: pool}
}

func (r *analysisRepository) Upsert(ctx context.Context, analysis *domain.Analysis) error {
	keywords, err := json.Marshal(analysis.Keywords)
	if err != nil {
		return err
	}
	entities, err := json.Marshal(analysis.Entities)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO analyses (ticket_id, cleaned_text, keywords, entities, complexity_score,
            sentiment, urgency, detected_category, confidence, degraded, word_count,
            processed_at, processing_time_ms, valid)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        ON CONFLICT (ticket_id) DO UPDATE SET
            cleaned_text=EXCLUDED.cleaned_text,
            keywords=EXCLUDED.keywords,
            entities=EXCLUDED.entities,
            complexity_score=EXCLUDED.complexity_score,
            sentiment=EXCLUDED.sentiment,
            urgency=EXCLUDED.urgency,
            detected_category=EXCLUDED.detected_category,
            confidence=EXCLUDED.confidence,
            degraded=EXCLUDED.degraded,
            word_count=EXCLUDED.word_count,
            processed_at=EXCLUDED.processed_at,
            processing_time_ms=EXCLUDED.processing_time_ms,
            valid=EXCLUDED.valid`
	_, err = r.pool.Exec(ctx, query,
		analysis.TicketID,
		analysis.CleanedText,
		keywords,
		entities,
		analysis.ComplexityScore,
		analysis.Sentiment,
		analysis.Urgency,
		analysis.DetectedCategory,
		analysis.Confidence,
		analysis.Degraded,
		analysis.WordCount,
		analysis.ProcessedAt,
		analysis.ProcessingTimeMS,
		analysis.Valid,
	)
	return err
}

const analysisColumns = `ticket_id, cleaned_text, keywords, entities, complexity_score,
       sentiment, urgency, detected_category, confidence, degraded, word_count,
       processed_at, processing_time_ms, valid`

func (r *analysisRepository) GetByTicketID(ctx context.Context, ticketID int64) (*domain.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE ticket_id=$1`
	row := r.pool.QueryRow(ctx, query, ticketID)
	analysis, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return analysis, nil
}

func (r *analysisRepository) ListAll(ctx context.Context) ([]domain.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses ORDER BY ticket_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Analysis
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *analysis)
	}
	return result, rows.Err()
}

func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var (
		analysis domain.Analysis
		keywords []byte
		entities []byte
	)
	if err := row.Scan(
		&analysis.TicketID,
		&analysis.CleanedText,
		&keywords,
		&entities,
		&analysis.ComplexityScore,
		&analysis.Sentiment,
		&analysis.Urgency,
		&analysis.DetectedCategory,
		&analysis.Confidence,
		&analysis.Degraded,
		&analysis.WordCount,
		&analysis.ProcessedAt,
		&analysis.ProcessingTimeMS,
		&analysis.Valid,
	); err != nil {
		return nil, err
	}
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &analysis.Keywords); err != nil {
			return nil, err
		}
	}
	if len(entities) > 0 {
		if err := json.Unmarshal(entities, &analysis.Entities); err != nil {
			return nil, err
		}
	}
	return &analysis, nil
}

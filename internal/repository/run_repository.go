package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Viru154/SEIRA/internal/domain"
)

type runRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository instantiates the postgres-backed run repository.
func NewRunRepository(pool *pgxpool.Pool) RunRepository {
	return &runRepository{pool: pool}
}

func (r *runRepository) Create(ctx context.Context, run *domain.Run) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return err
	}
	const query = `INSERT INTO runs (id, status, started_at, summary) VALUES ($1,$2,$3,$4)`
	_, err = r.pool.Exec(ctx, query, run.ID, run.Status, run.StartedAt, summary)
	return err
}

func (r *runRepository) Finish(ctx context.Context, run *domain.Run) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return err
	}
	const query = `UPDATE runs SET status=$1, finished_at=$2, summary=$3 WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, run.Status, run.FinishedAt, summary, run.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *runRepository) GetByID(ctx context.Context, id string) (*domain.Run, error) {
	const query = `SELECT id, status, started_at, finished_at, summary FROM runs WHERE id=$1`
	var (
		run     domain.Run
		summary []byte
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Status, &run.StartedAt, &run.FinishedAt, &summary,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &run.Summary); err != nil {
			return nil, err
		}
	}
	return &run, nil
}

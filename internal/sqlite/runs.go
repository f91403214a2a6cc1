package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tour-planner/internal/database"
	"tour-planner/internal/models"
)

type runRepository struct {
	store *Store
}

func (r *runRepository) List(ctx context.Context, limit, offset int) ([]models.TourRun, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// Get total count
	var total int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tour_runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	query := `SELECT id, created_at, source, nodes, total_km, sequence, elapsed_ms
	          FROM tour_runs
	          ORDER BY created_at DESC, id
	          LIMIT ? OFFSET ?`

	rows, err := r.store.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.TourRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, total, nil
}

func (r *runRepository) GetByID(ctx context.Context, id string) (*models.TourRun, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT id, created_at, source, nodes, total_km, sequence, elapsed_ms
	          FROM tour_runs WHERE id = ?`

	run, err := scanRun(r.store.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, database.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepository) Create(ctx context.Context, run *models.TourRun) error {
	sequence, err := json.Marshal(run.Sequence)
	if err != nil {
		return fmt.Errorf("failed to encode sequence: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := `INSERT INTO tour_runs (id, created_at, source, nodes, total_km, sequence, elapsed_ms)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = r.store.db.ExecContext(ctx, query,
		run.ID, run.CreatedAt, run.Source, run.Nodes, run.TotalKm, string(sequence), run.ElapsedMs)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

func (r *runRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result, err := r.store.db.ExecContext(ctx, `DELETE FROM tour_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, database.ErrNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.TourRun, error) {
	var run models.TourRun
	var sequence string
	err := row.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.Nodes, &run.TotalKm, &sequence, &run.ElapsedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(sequence), &run.Sequence); err != nil {
		return nil, fmt.Errorf("failed to decode sequence of run %s: %w", run.ID, err)
	}
	return &run, nil
}

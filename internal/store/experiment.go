package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type ExperimentStore struct {
	db *pgxpool.Pool
}

func NewExperimentStore(db *pgxpool.Pool) *ExperimentStore {
	return &ExperimentStore{db: db}
}

// recallVector turns the recall curve into the vector FindSimilar compares.
func recallVector(curve []domain.CurvePoint) *pgvector.Vector {
	if len(curve) == 0 {
		return nil
	}
	values := make([]float32, len(curve))
	for i, p := range curve {
		values[i] = float32(p.Recall)
	}
	v := pgvector.NewVector(values)
	return &v
}

const experimentColumns = `id, kind, experiment_type, vocabulary_size, interactions, repetitions, times, seed, params,
	curve_points, mean_convergence, mean_precision, success_rate, created_at`

func (s *ExperimentStore) Create(ctx context.Context, e *domain.Experiment) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO experiments (id, kind, experiment_type, vocabulary_size, interactions, repetitions, times, seed, params,
		                          curve_points, recall_curve, mean_convergence, mean_precision, success_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at`,
		e.ID, e.Kind, e.Type, e.VocabularySize, e.Interactions, e.Repetitions, e.Times, int64(e.Seed), e.Params,
		e.Curve, recallVector(e.Curve), e.MeanConvergence, e.MeanPrecision, e.SuccessRate,
	).Scan(&e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ExperimentStore) CreateRun(ctx context.Context, r *domain.ExperimentRun) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO experiment_runs (id, experiment_id, repetition, regula, policy, learned, precision, recall, converged_at, mismatches, success_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.ExperimentID, r.Repetition, r.Regula, r.Policy, r.Learned, r.Precision, r.Recall, r.ConvergedAt, r.Mismatches, r.SuccessRate,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return err
	}
	return nil
}

func scanExperiment(row pgx.Row, extra ...any) (*domain.Experiment, error) {
	e := &domain.Experiment{}
	var seed int64
	dest := []any{
		&e.ID, &e.Kind, &e.Type, &e.VocabularySize, &e.Interactions, &e.Repetitions, &e.Times, &seed, &e.Params,
		&e.Curve, &e.MeanConvergence, &e.MeanPrecision, &e.SuccessRate, &e.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.Seed = uint64(seed)
	return e, nil
}

func (s *ExperimentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Experiment, error) {
	e, err := scanExperiment(s.db.QueryRow(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *ExperimentStore) List(ctx context.Context, limit int) ([]domain.Experiment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+experimentColumns+` FROM experiments ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list experiments query: %w", err)
	}
	defer rows.Close()

	var out []domain.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan experiment row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list experiments rows: %w", err)
	}
	return out, nil
}

func (s *ExperimentStore) ListRuns(ctx context.Context, experimentID uuid.UUID) ([]domain.ExperimentRun, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, experiment_id, repetition, regula, policy, learned, precision, recall, converged_at, mismatches, success_rate
		 FROM experiment_runs WHERE experiment_id = $1 ORDER BY repetition`,
		experimentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs query: %w", err)
	}
	defer rows.Close()

	var out []domain.ExperimentRun
	for rows.Next() {
		var r domain.ExperimentRun
		if err := rows.Scan(&r.ID, &r.ExperimentID, &r.Repetition, &r.Regula, &r.Policy, &r.Learned,
			&r.Precision, &r.Recall, &r.ConvergedAt, &r.Mismatches, &r.SuccessRate); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs rows: %w", err)
	}
	return out, nil
}

// FindSimilar ranks experiments by the euclidean distance between their
// recall curves and that of experiment id. Only curves of the same length
// are comparable.
func (s *ExperimentStore) FindSimilar(ctx context.Context, id uuid.UUID, limit int) ([]domain.ExperimentWithDistance, error) {
	var ref *pgvector.Vector
	err := s.db.QueryRow(ctx, `SELECT recall_curve FROM experiments WHERE id = $1`, id).Scan(&ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ref == nil {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+experimentColumns+`, recall_curve <-> $1 AS distance
		 FROM experiments
		 WHERE id <> $2 AND recall_curve IS NOT NULL AND vector_dims(recall_curve) = $3
		 ORDER BY distance
		 LIMIT $4`,
		*ref, id, len(ref.Slice()), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find similar query: %w", err)
	}
	defer rows.Close()

	var out []domain.ExperimentWithDistance
	for rows.Next() {
		var distance float64
		e, err := scanExperiment(rows, &distance)
		if err != nil {
			return nil, fmt.Errorf("scan find similar row: %w", err)
		}
		out = append(out, domain.ExperimentWithDistance{Experiment: *e, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find similar rows: %w", err)
	}
	return out, nil
}

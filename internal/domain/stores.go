package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ExperimentStore interface {
	Create(ctx context.Context, e *Experiment) error
	CreateRun(ctx context.Context, r *ExperimentRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*Experiment, error)
	List(ctx context.Context, limit int) ([]Experiment, error)
	ListRuns(ctx context.Context, experimentID uuid.UUID) ([]ExperimentRun, error)
	// FindSimilar returns experiments whose mean recall curve is nearest
	// to the given experiment's curve.
	FindSimilar(ctx context.Context, id uuid.UUID, limit int) ([]ExperimentWithDistance, error)
}

// HypothesisRow is one scored hypothesis in row form.
type HypothesisRow struct {
	Token Token      `json:"token"`
	Rule  Commitment `json:"rule"`
	Score float64    `json:"score"`
}

type HypothesisSnapshot struct {
	SessionID uuid.UUID       `json:"session_id"`
	Rows      []HypothesisRow `json:"rows"`
	TakenAt   time.Time       `json:"taken_at"`
}

type SnapshotStore interface {
	Save(ctx context.Context, s *HypothesisSnapshot) error
	Latest(ctx context.Context, sessionID uuid.UUID) (*HypothesisSnapshot, error)
}

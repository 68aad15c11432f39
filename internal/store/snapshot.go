package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotStore keeps alignments as append-only rows, one per hypothesis.
type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Save(ctx context.Context, snap *domain.HypothesisSnapshot) error {
	rows := make([][]any, len(snap.Rows))
	for i, r := range snap.Rows {
		rule := r.Rule.Normalized()
		rows[i] = []any{snap.SessionID, snap.TakenAt, string(r.Token), string(rule.Operation), string(rule.Antecedent), string(rule.Consequent), r.Score}
	}
	_, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"hypothesis_snapshots"},
		[]string{"session_id", "taken_at", "token", "operation", "antecedent", "consequent", "score"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy snapshot rows: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Latest(ctx context.Context, sessionID uuid.UUID) (*domain.HypothesisSnapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT taken_at, token, operation, antecedent, consequent, score
		 FROM hypothesis_snapshots
		 WHERE session_id = $1
		   AND taken_at = (SELECT MAX(taken_at) FROM hypothesis_snapshots WHERE session_id = $1)
		 ORDER BY token, operation, antecedent, consequent`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot query: %w", err)
	}
	defer rows.Close()

	snap := &domain.HypothesisSnapshot{SessionID: sessionID}
	for rows.Next() {
		var (
			r                  domain.HypothesisRow
			op, ant, cons, tok string
		)
		if err := rows.Scan(&snap.TakenAt, &tok, &op, &ant, &cons, &r.Score); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		r.Token = domain.Token(tok)
		r.Rule = domain.Commitment{
			Operation:  domain.Operation(op),
			Antecedent: domain.Token(ant),
			Consequent: domain.Token(cons),
		}.Normalized()
		snap.Rows = append(snap.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest snapshot rows: %w", err)
	}
	if len(snap.Rows) == 0 {
		return nil, ErrNotFound
	}
	return snap, nil
}

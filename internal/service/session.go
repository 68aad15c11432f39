package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/regula/internal/alignment"
	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrNoSnapshotStore  = errors.New("snapshot store not configured")
)

// SessionConfig describes a learner session. Params are resolved from the
// profile of Type for VocabularySize tokens and then overridden.
type SessionConfig struct {
	Mode           alignment.Mode        `json:"mode"`
	Type           domain.ExperimentType `json:"type"`
	VocabularySize int                   `json:"vocabulary_size"`
	Params         map[string]float64    `json:"params,omitempty"`
	// ResumeFrom seeds the new session with the latest snapshot of another.
	ResumeFrom *uuid.UUID `json:"resume_from,omitempty"`
}

// Observation is one interaction seen by an external collector, with the
// policy in force and the agents known to have cancelled.
type Observation struct {
	Interaction domain.Interaction `json:"interaction"`
	Policy      domain.Policy      `json:"policy,omitempty"`
	Guilty      []domain.Agent     `json:"guilty,omitempty"`
}

type SessionInfo struct {
	ID           uuid.UUID          `json:"id"`
	Mode         alignment.Mode     `json:"mode"`
	Params       map[string]float64 `json:"params"`
	Interactions int                `json:"interactions"`
	Tokens       int                `json:"tokens"`
	CreatedAt    time.Time          `json:"created_at"`
	LastActive   time.Time          `json:"last_active"`
}

type session struct {
	mu           sync.Mutex
	id           uuid.UUID
	mode         alignment.Mode
	learner      *alignment.Learner
	interactions int
	createdAt    time.Time
	lastActive   time.Time
}

func (s *session) info() *SessionInfo {
	return &SessionInfo{
		ID:           s.id,
		Mode:         s.mode,
		Params:       s.learner.Params().AsMap(),
		Interactions: s.interactions,
		Tokens:       s.learner.Alignment().Len(),
		CreatedAt:    s.createdAt,
		LastActive:   s.lastActive,
	}
}

// SessionService keeps online learners fed by live interactions. Each
// session owns its own alignment.
type SessionService struct {
	snapshots domain.SnapshotStore
	profiles  *Profiles
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	now      func() time.Time
}

func NewSessionService(snapshots domain.SnapshotStore, profiles *Profiles, logger *zap.Logger) *SessionService {
	return &SessionService{
		snapshots: snapshots,
		profiles:  profiles,
		logger:    logger,
		sessions:  make(map[uuid.UUID]*session),
		now:       time.Now,
	}
}

func (s *SessionService) Create(ctx context.Context, cfg SessionConfig) (*SessionInfo, error) {
	if cfg.Mode == "" {
		cfg.Mode = alignment.ModeRelease
	}
	if cfg.Type == "" {
		cfg.Type = domain.TypeBasic
	}
	if cfg.VocabularySize == 0 {
		cfg.VocabularySize = DefaultVocabularySize
	}
	if !alignment.ValidMode(string(cfg.Mode)) {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidSession, cfg.Mode)
	}
	if cfg.VocabularySize < MinVocabularySize || cfg.VocabularySize > MaxVocabularySize {
		return nil, fmt.Errorf("%w: vocabulary size must be between %d and %d", ErrInvalidSession, MinVocabularySize, MaxVocabularySize)
	}
	params, err := s.profiles.For(cfg.Type, cfg.VocabularySize)
	if err != nil {
		return nil, err
	}
	if params, err = params.Merge(cfg.Params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	a := alignment.New()
	if cfg.ResumeFrom != nil {
		if s.snapshots == nil {
			return nil, ErrNoSnapshotStore
		}
		snap, err := s.snapshots.Latest(ctx, *cfg.ResumeFrom)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrSnapshotNotFound
			}
			return nil, err
		}
		a = alignment.FromRows(snap.Rows)
	}

	now := s.now()
	sess := &session{
		id:         uuid.New(),
		mode:       cfg.Mode,
		learner:    alignment.NewLearnerFrom(a, params, s.logger),
		createdAt:  now,
		lastActive: now,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	sessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session_id", sess.id.String()), zap.String("mode", string(cfg.Mode)))
	return sess.info(), nil
}

func (s *SessionService) get(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionService) Get(id uuid.UUID) (*SessionInfo, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.info(), nil
}

// Observe feeds one interaction to the session's learner.
func (s *SessionService) Observe(id uuid.UUID, obs Observation) (*SessionInfo, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if len(obs.Interaction) == 0 {
		return nil, fmt.Errorf("%w: empty interaction", ErrInvalidSession)
	}
	for _, a := range obs.Guilty {
		if !a.Valid() {
			return nil, fmt.Errorf("%w: invalid guilty agent %d", ErrInvalidSession, int(a))
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.learner.Learn(sess.mode, obs.Interaction, obs.Policy, domain.GuiltyFrom(obs.Guilty...)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	sess.interactions++
	sess.lastActive = s.now()
	interactionsLearned.WithLabelValues(string(sess.mode)).Inc()
	return sess.info(), nil
}

func (s *SessionService) Extract(id uuid.UUID) (domain.Regula, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.learner.Extract(), nil
}

func (s *SessionService) Hypotheses(id uuid.UUID) ([]domain.HypothesisRow, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.learner.Alignment().Rows(), nil
}

func (s *SessionService) Evaluate(id uuid.UUID, truth domain.Regula) (*alignment.Evaluation, error) {
	if err := truth.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	eval := alignment.Evaluate(truth, sess.learner.Alignment(), sess.learner.Params().Extract)
	return &eval, nil
}

// Snapshot persists the session's alignment in row form.
func (s *SessionService) Snapshot(ctx context.Context, id uuid.UUID) (*domain.HypothesisSnapshot, error) {
	if s.snapshots == nil {
		return nil, ErrNoSnapshotStore
	}
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	snap := &domain.HypothesisSnapshot{
		SessionID: sess.id,
		Rows:      sess.learner.Alignment().Rows(),
		TakenAt:   s.now().UTC(),
	}
	sess.mu.Unlock()

	if err := s.snapshots.Save(ctx, snap); err != nil {
		return nil, err
	}
	s.logger.Info("session snapshot saved", zap.String("session_id", id.String()), zap.Int("rows", len(snap.Rows)))
	return snap, nil
}

func (s *SessionService) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	sessionsActive.Set(float64(len(s.sessions)))
	return nil
}

// Sweep drops sessions idle for longer than ttl and returns how many went.
func (s *SessionService) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			removed++
		}
	}
	sessionsActive.Set(float64(len(s.sessions)))
	return removed
}

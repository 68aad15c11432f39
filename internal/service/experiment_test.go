package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/generator"
	"github.com/Harshitk-cp/regula/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seed(v uint64) *uint64 { return &v }

func TestProfiles(t *testing.T) {
	p, err := NewProfiles(nil)
	require.NoError(t, err)

	basic, err := p.For(domain.TypeFrequency, 10)
	require.NoError(t, err)
	assert.Equal(t, 2.0, basic.Create)
	assert.Equal(t, 200.0, basic.NoCancel)
	assert.InDelta(t, 0.2, basic.Confidence, 1e-9)

	punish, err := p.For(domain.TypePunish, 10)
	require.NoError(t, err)
	assert.Equal(t, 3.0, punish.Create)
	assert.Equal(t, 0.8, punish.PunishOpen)

	policy, err := p.For(domain.TypePolicy, 10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, policy.Extract)

	dialogue, err := p.Dialogue(10)
	require.NoError(t, err)
	assert.Equal(t, 4.0, dialogue.Create)
	assert.InDelta(t, 0.3, dialogue.Confidence, 1e-9)

	_, err = p.For("bogus", 10)
	assert.ErrorIs(t, err, ErrInvalidExperiment)
}

func TestProfiles_Overrides(t *testing.T) {
	p, err := NewProfiles(map[string]map[string]float64{
		"basic":    {"epp": 25, "ep2": 0.5},
		"dialogue": {"p0": 5},
	})
	require.NoError(t, err)

	basic, err := p.For(domain.TypeBasic, 10)
	require.NoError(t, err)
	assert.Equal(t, 25.0, basic.Extract)
	assert.Equal(t, 0.5, basic.Confidence)

	d, err := p.Dialogue(10)
	require.NoError(t, err)
	assert.Equal(t, 5.0, d.Create)

	_, err = NewProfiles(map[string]map[string]float64{"nope": {"p0": 1}})
	assert.ErrorIs(t, err, ErrInvalidExperiment)
	_, err = NewProfiles(map[string]map[string]float64{"basic": {"p42": 1}})
	assert.ErrorIs(t, err, ErrInvalidExperiment)
}

func newExperimentService(es domain.ExperimentStore) *ExperimentService {
	return NewExperimentService(es, nil, zap.NewNop())
}

func TestRunLearning(t *testing.T) {
	s := newExperimentService(nil)
	cfg := ExperimentConfig{Type: domain.TypeBasic, VocabularySize: 5, Interactions: 30, Repetitions: 3, Seed: seed(7)}

	e, err := s.RunLearning(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, domain.KindLearning, e.Kind)
	assert.Equal(t, uint64(7), e.Seed)
	assert.Equal(t, 1, e.Times)
	require.Len(t, e.Curve, 30)
	require.Len(t, e.Runs, 3)
	for _, p := range e.Curve {
		assert.GreaterOrEqual(t, p.Precision, 0.0)
		assert.LessOrEqual(t, p.Precision, 1.0+1e-9)
		assert.GreaterOrEqual(t, p.Recall, 0.0)
		assert.LessOrEqual(t, p.Recall, 1.0+1e-9)
	}
	assert.LessOrEqual(t, e.MeanConvergence, 60.0)
	for i, run := range e.Runs {
		assert.Equal(t, i, run.Repetition)
		assert.Len(t, run.Regula, 5)
		assert.NoError(t, run.Regula.Validate())
		assert.Positive(t, run.Regula.Count(domain.OpCancel))
		if run.ConvergedAt != nil {
			assert.Equal(t, 1.0, run.Precision)
		}
	}

	again, err := s.RunLearning(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, e.Curve, again.Curve)
	assert.Equal(t, e.MeanConvergence, again.MeanConvergence)
}

func TestRunLearning_Types(t *testing.T) {
	s := newExperimentService(nil)
	ctx := context.Background()

	e, err := s.RunLearning(ctx, ExperimentConfig{Type: domain.TypeCreate, VocabularySize: 6, Interactions: 5, Repetitions: 2, Seed: seed(1)})
	require.NoError(t, err)
	for _, run := range e.Runs {
		assert.Zero(t, run.Regula.Count(domain.OpCancel))
		assert.Zero(t, run.Regula.Count(domain.OpRelease))
	}

	e, err = s.RunLearning(ctx, ExperimentConfig{Type: domain.TypePolicy, VocabularySize: 6, Interactions: 5, Repetitions: 2, Seed: seed(2)})
	require.NoError(t, err)
	for _, run := range e.Runs {
		for _, entry := range run.Policy.Entries() {
			assert.Equal(t, domain.OpCancel, entry.Rule.Operation)
			assert.Equal(t, domain.Wildcard, entry.Rule.Consequent)
		}
	}

	for _, typ := range []domain.ExperimentType{domain.TypePunish, domain.TypeFrequency, domain.TypeRelease} {
		e, err = s.RunLearning(ctx, ExperimentConfig{Type: typ, VocabularySize: 6, Interactions: 20, Repetitions: 1, Times: 2, Seed: seed(3)})
		require.NoError(t, err, "type %s", typ)
		assert.Len(t, e.Curve, 20)
	}
}

func TestRunLearning_Invalid(t *testing.T) {
	s := newExperimentService(nil)
	ctx := context.Background()

	cases := []ExperimentConfig{
		{VocabularySize: 26},
		{VocabularySize: 1},
		{VocabularySize: 2},
		{Interactions: MaxInteractions + 1},
		{Repetitions: MaxRepetitions + 1},
		{Times: MaxTimes + 1},
		{Type: "bogus"},
		{Interactions: -1},
		{Repetitions: -2},
		{Times: -1},
		{Params: map[string]float64{"p7": 1}},
		{Params: map[string]float64{"p0": -1}},
	}
	for _, cfg := range cases {
		_, err := s.RunLearning(ctx, cfg)
		assert.ErrorIs(t, err, ErrInvalidExperiment, "%+v", cfg)
	}
}

func TestRunLearning_Ungenerable(t *testing.T) {
	s := newExperimentService(nil)
	s.MaxAttempts = 50
	// three tokens cannot hold a create plus a cancel of it
	_, err := s.RunLearning(context.Background(), ExperimentConfig{VocabularySize: 3, Interactions: 5, Repetitions: 1, Seed: seed(1)})
	assert.ErrorIs(t, err, generator.ErrUngenerable)
}

func TestRunLearning_Cancelled(t *testing.T) {
	s := newExperimentService(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.RunLearning(ctx, ExperimentConfig{VocabularySize: 5, Interactions: 50, Repetitions: 2, Seed: seed(1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunLearning_Persists(t *testing.T) {
	es := new(MockExperimentStore)
	ctx := context.Background()
	es.On("Create", ctx, mock.AnythingOfType("*domain.Experiment")).Return(nil).Once()
	es.On("CreateRun", ctx, mock.AnythingOfType("*domain.ExperimentRun")).Return(nil).Twice()

	s := newExperimentService(es)
	e, err := s.RunLearning(ctx, ExperimentConfig{VocabularySize: 5, Interactions: 5, Repetitions: 2, Seed: seed(4)})
	require.NoError(t, err)

	es.AssertExpectations(t)
	for _, run := range e.Runs {
		assert.Equal(t, e.ID, run.ExperimentID)
	}
}

func TestRunDialogue(t *testing.T) {
	s := newExperimentService(nil)
	e, err := s.RunDialogue(context.Background(), DialogueConfig{VocabularySize: 5, Interactions: 20, Repetitions: 2, Dialogues: 3, Seed: seed(11)})
	require.NoError(t, err)

	assert.Equal(t, domain.KindDialogue, e.Kind)
	require.NotNil(t, e.SuccessRate)
	assert.GreaterOrEqual(t, *e.SuccessRate, 0.0)
	assert.LessOrEqual(t, *e.SuccessRate, 1.0+1e-9)
	require.Len(t, e.Runs, 2)
	for _, run := range e.Runs {
		require.NotNil(t, run.SuccessRate)
		assert.NotEmpty(t, run.Learned)
	}

	_, err = s.RunDialogue(context.Background(), DialogueConfig{Dialogues: -1})
	assert.ErrorIs(t, err, ErrInvalidExperiment)
}

func TestExperimentService_Reads(t *testing.T) {
	ctx := context.Background()

	_, err := newExperimentService(nil).Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	es := new(MockExperimentStore)
	missing := uuid.New()
	es.On("GetByID", ctx, missing).Return(nil, store.ErrNotFound)
	es.On("FindSimilar", ctx, missing, DefaultListLimit).Return(nil, store.ErrNotFound)

	found := &domain.Experiment{ID: uuid.New(), Kind: domain.KindLearning}
	es.On("GetByID", ctx, found.ID).Return(found, nil)
	es.On("ListRuns", ctx, found.ID).Return([]domain.ExperimentRun{{Repetition: 0}}, nil)
	es.On("List", ctx, 5).Return([]domain.Experiment{*found}, nil)

	s := newExperimentService(es)
	_, err = s.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrExperimentNotFound)
	_, err = s.FindSimilar(ctx, missing, 0)
	assert.ErrorIs(t, err, ErrExperimentNotFound)

	got, err := s.Get(ctx, found.ID)
	require.NoError(t, err)
	assert.Len(t, got.Runs, 1)

	list, err := s.List(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRunDialogue_Invalid(t *testing.T) {
	s := newExperimentService(nil)
	ctx := context.Background()

	cases := []DialogueConfig{
		{VocabularySize: 2},
		{Interactions: MaxInteractions + 1},
		{Repetitions: MaxRepetitions + 1},
		{Dialogues: MaxDialogues + 1},
		{Dialogues: -1},
	}
	for _, cfg := range cases {
		_, err := s.RunDialogue(ctx, cfg)
		assert.ErrorIs(t, err, ErrInvalidExperiment, "%+v", cfg)
	}
}

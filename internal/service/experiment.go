package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Harshitk-cp/regula/internal/alignment"
	"github.com/Harshitk-cp/regula/internal/dialogue"
	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/generator"
	"github.com/Harshitk-cp/regula/internal/semantics"
	"github.com/Harshitk-cp/regula/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidExperiment  = errors.New("invalid experiment")
	ErrExperimentNotFound = errors.New("experiment not found")
	ErrStoreUnavailable   = errors.New("experiment store not configured")
)

const (
	// A create rule needs three distinct tokens.
	MinVocabularySize = 3
	MaxVocabularySize = 25

	MaxInteractions = 20000
	MaxRepetitions  = 200
	MaxDialogues    = 1000
	MaxTimes        = 20

	DefaultVocabularySize      = 12
	DefaultInteractions        = 1000
	DefaultDialogueInteraction = 200
	DefaultRepetitions         = 10
	DefaultParallelism         = 4
	DefaultListLimit           = 20

	dialogueTurns = 6
)

// interactionBounds are the lengths a training interaction is drawn from.
var interactionBounds = []int{4, 6, 8, 10}

type ExperimentConfig struct {
	Type           domain.ExperimentType `json:"type"`
	VocabularySize int                   `json:"vocabulary_size"`
	Interactions   int                   `json:"interactions"`
	Repetitions    int                   `json:"repetitions"`
	Times          int                   `json:"times"`
	Seed           *uint64               `json:"seed,omitempty"`
	Params         map[string]float64    `json:"params,omitempty"`
}

type DialogueConfig struct {
	VocabularySize int                `json:"vocabulary_size"`
	Interactions   int                `json:"interactions"`
	Repetitions    int                `json:"repetitions"`
	Dialogues      int                `json:"dialogues"`
	Seed           *uint64            `json:"seed,omitempty"`
	Params         map[string]float64 `json:"params,omitempty"`
}

type ExperimentService struct {
	store    domain.ExperimentStore
	profiles *Profiles
	logger   *zap.Logger

	Parallelism int
	MaxAttempts int
}

// NewExperimentService accepts a nil store; experiments then run without
// being persisted.
func NewExperimentService(es domain.ExperimentStore, profiles *Profiles, logger *zap.Logger) *ExperimentService {
	return &ExperimentService{
		store:       es,
		profiles:    profiles,
		logger:      logger,
		Parallelism: DefaultParallelism,
		MaxAttempts: generator.DefaultMaxAttempts,
	}
}

func (c *ExperimentConfig) normalize() error {
	if c.Type == "" {
		c.Type = domain.TypeBasic
	}
	if c.VocabularySize == 0 {
		c.VocabularySize = DefaultVocabularySize
	}
	if c.Interactions == 0 {
		c.Interactions = DefaultInteractions
	}
	if c.Repetitions == 0 {
		c.Repetitions = DefaultRepetitions
	}
	if c.Times == 0 {
		c.Times = 1
	}
	if !domain.ValidExperimentType(string(c.Type)) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidExperiment, c.Type)
	}
	if err := validateSize(c.VocabularySize, c.Interactions, c.Repetitions); err != nil {
		return err
	}
	if c.Times < 1 || c.Times > MaxTimes {
		return fmt.Errorf("%w: times must be between 1 and %d", ErrInvalidExperiment, MaxTimes)
	}
	return nil
}

func (c *DialogueConfig) normalize() error {
	if c.VocabularySize == 0 {
		c.VocabularySize = DefaultVocabularySize
	}
	if c.Interactions == 0 {
		c.Interactions = DefaultDialogueInteraction
	}
	if c.Repetitions == 0 {
		c.Repetitions = DefaultRepetitions
	}
	if c.Dialogues == 0 {
		c.Dialogues = c.Repetitions
	}
	if err := validateSize(c.VocabularySize, c.Interactions, c.Repetitions); err != nil {
		return err
	}
	if c.Dialogues < 1 || c.Dialogues > MaxDialogues {
		return fmt.Errorf("%w: dialogues must be between 1 and %d", ErrInvalidExperiment, MaxDialogues)
	}
	return nil
}

func validateSize(vocabulary, interactions, repetitions int) error {
	if vocabulary < MinVocabularySize || vocabulary > MaxVocabularySize {
		return fmt.Errorf("%w: vocabulary size must be between %d and %d", ErrInvalidExperiment, MinVocabularySize, MaxVocabularySize)
	}
	if interactions < 1 || interactions > MaxInteractions {
		return fmt.Errorf("%w: interactions must be between 1 and %d", ErrInvalidExperiment, MaxInteractions)
	}
	if repetitions < 1 || repetitions > MaxRepetitions {
		return fmt.Errorf("%w: repetitions must be between 1 and %d", ErrInvalidExperiment, MaxRepetitions)
	}
	return nil
}

func seedOf(seed *uint64) uint64 {
	if seed != nil {
		return *seed
	}
	return rand.Uint64()
}

func (s *ExperimentService) generator(seed uint64, stream int) *generator.Generator {
	g := generator.NewSeeded(seed, uint64(stream), s.logger)
	g.MaxAttempts = s.MaxAttempts
	return g
}

// learningOutcome is one repetition of a learning experiment.
type learningOutcome struct {
	run         domain.ExperimentRun
	curve       []domain.CurvePoint
	convergence int
}

// RunLearning measures how fast fresh learners recover randomly generated
// regulas. Each repetition stops at the first interaction after which the
// extracted regula matches the truth; the rest of its curve counts as
// perfect and a repetition that never converges counts as twice the
// interaction budget.
func (s *ExperimentService) RunLearning(ctx context.Context, cfg ExperimentConfig) (*domain.Experiment, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	params, err := s.profiles.For(cfg.Type, cfg.VocabularySize)
	if err != nil {
		return nil, err
	}
	if params, err = params.Merge(cfg.Params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExperiment, err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExperiment, err)
	}

	start := time.Now()
	seed := seedOf(cfg.Seed)
	vocab, err := s.generator(seed, 0).Letters(cfg.VocabularySize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExperiment, err)
	}

	s.logger.Info("learning experiment started",
		zap.String("type", string(cfg.Type)),
		zap.Int("vocabulary_size", cfg.VocabularySize),
		zap.Int("interactions", cfg.Interactions),
		zap.Int("repetitions", cfg.Repetitions),
		zap.Uint64("seed", seed))

	outcomes := make([]learningOutcome, cfg.Repetitions)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Parallelism))
	for rep := 0; rep < cfg.Repetitions; rep++ {
		g.Go(func() error {
			out, err := s.learnRepetition(gctx, cfg, vocab, params, seed, rep)
			if err != nil {
				return fmt.Errorf("repetition %d: %w", rep, err)
			}
			outcomes[rep] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		experimentsTotal.WithLabelValues(string(domain.KindLearning), string(cfg.Type), "error").Inc()
		return nil, err
	}

	e := &domain.Experiment{
		ID:             uuid.New(),
		Kind:           domain.KindLearning,
		Type:           cfg.Type,
		VocabularySize: cfg.VocabularySize,
		Interactions:   cfg.Interactions,
		Repetitions:    cfg.Repetitions,
		Times:          cfg.Times,
		Seed:           seed,
		Params:         params.AsMap(),
		Curve:          make([]domain.CurvePoint, cfg.Interactions),
		CreatedAt:      time.Now().UTC(),
	}
	n := float64(cfg.Repetitions)
	for _, out := range outcomes {
		for i, p := range out.curve {
			e.Curve[i].Precision += p.Precision / n
			e.Curve[i].Recall += p.Recall / n
		}
		e.MeanConvergence += float64(out.convergence) / n
		e.MeanPrecision += out.run.Precision / n
		e.Runs = append(e.Runs, out.run)
	}

	if err := s.persist(ctx, e); err != nil {
		return nil, err
	}

	experimentsTotal.WithLabelValues(string(domain.KindLearning), string(cfg.Type), "ok").Inc()
	experimentDuration.WithLabelValues(string(domain.KindLearning)).Observe(time.Since(start).Seconds())
	s.logger.Info("learning experiment finished",
		zap.String("experiment_id", e.ID.String()),
		zap.Float64("mean_convergence", e.MeanConvergence),
		zap.Float64("mean_precision", e.MeanPrecision),
		zap.Duration("elapsed", time.Since(start)))
	return e, nil
}

func regulaMode(t domain.ExperimentType) generator.Mode {
	switch t {
	case domain.TypeCreate:
		return generator.ModeCreate
	case domain.TypeRelease:
		return generator.ModeRelease
	default:
		return generator.ModeCancel
	}
}

func (s *ExperimentService) learnRepetition(ctx context.Context, cfg ExperimentConfig, vocab domain.Vocabulary, params alignment.Params, seed uint64, rep int) (learningOutcome, error) {
	g := s.generator(seed, rep+1)
	regula, err := g.Regula(vocab, regulaMode(cfg.Type))
	if err != nil {
		ungenerableTotal.WithLabelValues("regula").Inc()
		return learningOutcome{}, err
	}
	policy := domain.Policy{}
	if cfg.Type == domain.TypePolicy {
		policy = g.Policy(regula, regula.Count(domain.OpCreate), true)
	}

	learner := alignment.NewLearner(params, s.logger)
	baseUntil := 0
	if cfg.Type == domain.TypeFrequency {
		baseUntil = cfg.Interactions / 10
	}

	out := learningOutcome{
		run: domain.ExperimentRun{
			ID:         uuid.New(),
			Repetition: rep,
			Regula:     regula,
			Policy:     policy,
		},
		curve:       make([]domain.CurvePoint, 0, cfg.Interactions),
		convergence: 2 * cfg.Interactions,
	}
	var eval alignment.Evaluation
	for j := 0; j < cfg.Interactions; j++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := g.Interaction(regula, vocab, g.Bound(interactionBounds...), policy, cfg.Times)
		if err != nil {
			ungenerableTotal.WithLabelValues("interaction").Inc()
			return out, err
		}
		generatorAttempts.Observe(float64(res.Attempts))

		mode := alignment.ModeRelease
		switch {
		case j < baseUntil:
			mode = alignment.ModeBase
		case cfg.Type == domain.TypePunish:
			mode = alignment.ModePunish
		}
		if err := learner.Learn(mode, res.Interaction, policy, res.Guilty); err != nil {
			return out, err
		}
		interactionsLearned.WithLabelValues(string(mode)).Inc()

		eval = alignment.Evaluate(regula, learner.Alignment(), params.Extract)
		out.curve = append(out.curve, domain.CurvePoint{Precision: eval.Precision, Recall: eval.Recall})
		if eval.Converged() {
			converged := j
			out.run.ConvergedAt = &converged
			out.convergence = j
			for len(out.curve) < cfg.Interactions {
				out.curve = append(out.curve, domain.CurvePoint{Precision: 1, Recall: 1})
			}
			break
		}
	}

	out.run.Learned = eval.Learned
	out.run.Precision = eval.Precision
	out.run.Recall = eval.Recall
	out.run.Mismatches = eval.Mismatches

	s.logger.Debug("repetition finished",
		zap.Int("repetition", rep),
		zap.Float64("precision", eval.Precision),
		zap.Float64("recall", eval.Recall),
		zap.Int("mismatches", len(eval.Mismatches)))
	return out, nil
}

// RunDialogue trains a learner on a random regula, then lets an agent with
// the true regula talk to an agent with the learned one. A dialogue
// succeeds when the learned side leaves nothing detached under the truth.
func (s *ExperimentService) RunDialogue(ctx context.Context, cfg DialogueConfig) (*domain.Experiment, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	params, err := s.profiles.Dialogue(cfg.VocabularySize)
	if err != nil {
		return nil, err
	}
	if params, err = params.Merge(cfg.Params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExperiment, err)
	}

	start := time.Now()
	seed := seedOf(cfg.Seed)
	vocab, err := s.generator(seed, 0).Letters(cfg.VocabularySize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExperiment, err)
	}

	runs := make([]domain.ExperimentRun, cfg.Repetitions)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Parallelism))
	for rep := 0; rep < cfg.Repetitions; rep++ {
		g.Go(func() error {
			run, err := s.dialogueRepetition(gctx, cfg, vocab, params, seed, rep)
			if err != nil {
				return fmt.Errorf("repetition %d: %w", rep, err)
			}
			runs[rep] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		experimentsTotal.WithLabelValues(string(domain.KindDialogue), "", "error").Inc()
		return nil, err
	}

	rate := 0.0
	for _, r := range runs {
		rate += *r.SuccessRate / float64(len(runs))
	}
	e := &domain.Experiment{
		ID:             uuid.New(),
		Kind:           domain.KindDialogue,
		VocabularySize: cfg.VocabularySize,
		Interactions:   cfg.Interactions,
		Repetitions:    cfg.Repetitions,
		Times:          1,
		Seed:           seed,
		Params:         params.AsMap(),
		SuccessRate:    &rate,
		Runs:           runs,
		CreatedAt:      time.Now().UTC(),
	}
	for _, r := range runs {
		e.MeanPrecision += r.Precision / float64(len(runs))
	}

	if err := s.persist(ctx, e); err != nil {
		return nil, err
	}

	experimentsTotal.WithLabelValues(string(domain.KindDialogue), "", "ok").Inc()
	experimentDuration.WithLabelValues(string(domain.KindDialogue)).Observe(time.Since(start).Seconds())
	s.logger.Info("dialogue experiment finished",
		zap.String("experiment_id", e.ID.String()),
		zap.Float64("success_rate", rate),
		zap.Duration("elapsed", time.Since(start)))
	return e, nil
}

func (s *ExperimentService) dialogueRepetition(ctx context.Context, cfg DialogueConfig, vocab domain.Vocabulary, params alignment.Params, seed uint64, rep int) (domain.ExperimentRun, error) {
	g := s.generator(seed, rep+1)
	regula, err := g.Regula(vocab, generator.ModeCancel)
	if err != nil {
		ungenerableTotal.WithLabelValues("regula").Inc()
		return domain.ExperimentRun{}, err
	}

	learner := alignment.NewLearner(params, s.logger)
	for j := 0; j < cfg.Interactions; j++ {
		if err := ctx.Err(); err != nil {
			return domain.ExperimentRun{}, err
		}
		res, err := g.Interaction(regula, vocab, g.Bound(interactionBounds...), domain.Policy{}, 1)
		if err != nil {
			ungenerableTotal.WithLabelValues("interaction").Inc()
			return domain.ExperimentRun{}, err
		}
		generatorAttempts.Observe(float64(res.Attempts))
		learner.LearnRelease(res.Interaction, domain.Policy{})
		interactionsLearned.WithLabelValues(string(alignment.ModeRelease)).Inc()
	}
	eval := alignment.Evaluate(regula, learner.Alignment(), params.Extract)

	a0 := dialogue.NewAgent(domain.AgentZero, regula, g.Fork(), s.logger)
	a1 := dialogue.NewAgent(domain.AgentOne, eval.Learned, g.Fork(), s.logger)
	pattern := generator.Alternating(dialogueTurns)

	successes := 0
	for i := 0; i < cfg.Dialogues; i++ {
		res, err := dialogue.Run(ctx, a0, a1, pattern)
		if err != nil {
			return domain.ExperimentRun{}, err
		}
		if len(semantics.DetachedBy(regula, domain.AgentOne, res.Interaction)) == 0 {
			successes++
		}
	}
	rate := float64(successes) / float64(cfg.Dialogues)

	s.logger.Debug("dialogue repetition finished",
		zap.Int("repetition", rep),
		zap.Float64("success_rate", rate),
		zap.Float64("precision", eval.Precision))
	return domain.ExperimentRun{
		ID:          uuid.New(),
		Repetition:  rep,
		Regula:      regula,
		Policy:      domain.Policy{},
		Learned:     eval.Learned,
		Precision:   eval.Precision,
		Recall:      eval.Recall,
		Mismatches:  eval.Mismatches,
		SuccessRate: &rate,
	}, nil
}

func (s *ExperimentService) persist(ctx context.Context, e *domain.Experiment) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Create(ctx, e); err != nil {
		return fmt.Errorf("save experiment: %w", err)
	}
	for i := range e.Runs {
		e.Runs[i].ExperimentID = e.ID
		if err := s.store.CreateRun(ctx, &e.Runs[i]); err != nil {
			return fmt.Errorf("save run %d: %w", i, err)
		}
	}
	return nil
}

func (s *ExperimentService) Get(ctx context.Context, id uuid.UUID) (*domain.Experiment, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrExperimentNotFound
		}
		return nil, err
	}
	runs, err := s.store.ListRuns(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Runs = runs
	return e, nil
}

func (s *ExperimentService) List(ctx context.Context, limit int) ([]domain.Experiment, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.List(ctx, limit)
}

// FindSimilar returns the experiments whose mean recall curve lies closest
// to that of experiment id.
func (s *ExperimentService) FindSimilar(ctx context.Context, id uuid.UUID, limit int) ([]domain.ExperimentWithDistance, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	out, err := s.store.FindSimilar(ctx, id, limit)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrExperimentNotFound
	}
	return out, err
}

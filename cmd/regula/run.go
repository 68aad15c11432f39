package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harshitk-cp/regula/internal/config"
	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/service"
	"github.com/Harshitk-cp/regula/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if os.Getenv("LOG_LEVEL") != "" {
		if level, err := zap.ParseAtomicLevel(config.LogLevel()); err == nil {
			cfg.Level = level
		}
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newService builds an ExperimentService and a cleanup func. The store is
// only attached with --persist.
func newService(ctx context.Context, logger *zap.Logger) (*service.ExperimentService, func(), error) {
	path := paramsFile
	if path == "" {
		path = config.ParamsFile()
	}
	overrides, err := config.LoadParams(path)
	if err != nil {
		return nil, nil, err
	}
	profiles, err := service.NewProfiles(overrides)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var es domain.ExperimentStore
	if persist {
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			return nil, nil, fmt.Errorf("--persist needs DATABASE_URL")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		cleanup = pool.Close
		es = store.NewExperimentStore(pool)
	}

	svc := service.NewExperimentService(es, profiles, logger)
	svc.Parallelism = config.ExperimentParallelism()
	svc.MaxAttempts = config.GeneratorMaxAttempts()
	return svc, cleanup, nil
}

func seedFlag() *uint64 {
	if seed == 0 {
		return nil
	}
	return &seed
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type learnSummary struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Seed            uint64   `json:"seed"`
	MeanConvergence float64  `json:"mean_convergence"`
	MeanPrecision   float64  `json:"mean_precision"`
	FinalRecall     float64  `json:"final_recall"`
	Results         string   `json:"results,omitempty"`
	SuccessRate     *float64 `json:"success_rate,omitempty"`
}

func runLearn(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Load(); err != nil {
		return err
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	svc, cleanup, err := newService(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	e, err := svc.RunLearning(ctx, service.ExperimentConfig{
		Type:           domain.ExperimentType(experimentType),
		VocabularySize: vocabularySize,
		Interactions:   learnInteractions,
		Repetitions:    repetitions,
		Times:          frequency,
		Seed:           seedFlag(),
	})
	if err != nil {
		return err
	}

	summary := learnSummary{
		ID:              e.ID.String(),
		Type:            string(e.Type),
		Seed:            e.Seed,
		MeanConvergence: e.MeanConvergence,
		MeanPrecision:   e.MeanPrecision,
	}
	if len(e.Curve) > 0 {
		summary.FinalRecall = e.Curve[len(e.Curve)-1].Recall
	}
	if writeResults {
		summary.Results = fmt.Sprintf("results-%d-%s-%d", e.VocabularySize, e.Type, e.Times)
		if err := writeCurve(summary.Results, e); err != nil {
			return err
		}
	}
	return printJSON(summary)
}

func writeCurve(path string, e *domain.Experiment) error {
	data, err := json.MarshalIndent(map[string]any{
		"vocabulary_size":  e.VocabularySize,
		"type":             e.Type,
		"times":            e.Times,
		"seed":             e.Seed,
		"mean_convergence": e.MeanConvergence,
		"curve":            e.Curve,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

func runDialogue(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Load(); err != nil {
		return err
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	svc, cleanup, err := newService(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	e, err := svc.RunDialogue(ctx, service.DialogueConfig{
		VocabularySize: vocabularySize,
		Interactions:   dialogueInteractions,
		Repetitions:    repetitions,
		Dialogues:      dialogues,
		Seed:           seedFlag(),
	})
	if err != nil {
		return err
	}
	return printJSON(learnSummary{
		ID:              e.ID.String(),
		Type:            string(domain.KindDialogue),
		Seed:            e.Seed,
		MeanConvergence: e.MeanConvergence,
		MeanPrecision:   e.MeanPrecision,
		SuccessRate:     e.SuccessRate,
	})
}

package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generatorAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "regula_generator_attempts",
		Help:    "Attempts needed to generate an accepted interaction",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})

	ungenerableTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regula_generator_ungenerable_total",
		Help: "Generation requests that hit the attempt ceiling",
	}, []string{"stage"})

	interactionsLearned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regula_interactions_learned_total",
		Help: "Interactions fed to a learner, by learner mode",
	}, []string{"mode"})

	experimentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "regula_experiments_total",
		Help: "Experiments run, by kind, type and result",
	}, []string{"kind", "type", "result"})

	experimentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "regula_experiment_duration_seconds",
		Help:    "Wall time of whole experiments",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	}, []string{"kind"})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "regula_sessions_active",
		Help: "Learner sessions currently held in memory",
	})
)

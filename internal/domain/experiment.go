package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExperimentKind string

const (
	// KindLearning measures how fast a learner converges to the true regula.
	KindLearning ExperimentKind = "learning"
	// KindDialogue lets an agent with a learned regula talk to one holding
	// the true regula.
	KindDialogue ExperimentKind = "dialogue"
)

type ExperimentType string

const (
	TypeBasic     ExperimentType = "basic"
	TypeCreate    ExperimentType = "create"
	TypeRelease   ExperimentType = "release"
	TypePunish    ExperimentType = "punish"
	TypeFrequency ExperimentType = "frequency"
	TypePolicy    ExperimentType = "policy"
)

func ValidExperimentType(t string) bool {
	switch ExperimentType(t) {
	case TypeBasic, TypeCreate, TypeRelease, TypePunish, TypeFrequency, TypePolicy:
		return true
	}
	return false
}

// CurvePoint is the learner's precision and recall after one interaction,
// averaged over repetitions when it belongs to an Experiment.
type CurvePoint struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// Mismatch is a token whose extracted rule differs from the truth.
type Mismatch struct {
	Token Token      `json:"token"`
	Truth Commitment `json:"truth"`
	Guess Commitment `json:"guess"`
}

type Experiment struct {
	ID              uuid.UUID          `json:"id"`
	Kind            ExperimentKind     `json:"kind"`
	Type            ExperimentType     `json:"type"`
	VocabularySize  int                `json:"vocabulary_size"`
	Interactions    int                `json:"interactions"`
	Repetitions     int                `json:"repetitions"`
	Times           int                `json:"times"`
	Seed            uint64             `json:"seed"`
	Params          map[string]float64 `json:"params"`
	Curve           []CurvePoint       `json:"curve,omitempty"`
	MeanConvergence float64            `json:"mean_convergence"`
	MeanPrecision   float64            `json:"mean_precision"`
	SuccessRate     *float64           `json:"success_rate,omitempty"`
	Runs            []ExperimentRun    `json:"runs,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ExperimentRun is one repetition of an experiment with its own regula,
// policy and learner.
type ExperimentRun struct {
	ID           uuid.UUID  `json:"id"`
	ExperimentID uuid.UUID  `json:"experiment_id"`
	Repetition   int        `json:"repetition"`
	Regula       Regula     `json:"regula"`
	Policy       Policy     `json:"policy"`
	Learned      Regula     `json:"learned"`
	Precision    float64    `json:"precision"`
	Recall       float64    `json:"recall"`
	ConvergedAt  *int       `json:"converged_at,omitempty"`
	Mismatches   []Mismatch `json:"mismatches,omitempty"`
	SuccessRate  *float64   `json:"success_rate,omitempty"`
}

// ExperimentWithDistance pairs an experiment with the distance between its
// curve and a reference curve.
type ExperimentWithDistance struct {
	Experiment
	Distance float64 `json:"distance"`
}

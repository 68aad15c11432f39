package alignment

import (
	"fmt"

	"github.com/Harshitk-cp/regula/internal/domain"
	"go.uber.org/zap"
)

// Mode selects which passes a Learner runs per interaction.
type Mode string

const (
	// ModeBase only generates create hypotheses and never prunes.
	ModeBase Mode = "base"
	// ModeRelease attributes cancels and releases assuming both agents may
	// have cancelled.
	ModeRelease Mode = "release"
	// ModePunish attributes cancels using the observed guilty set.
	ModePunish Mode = "punish"
)

func ValidMode(m string) bool {
	switch Mode(m) {
	case ModeBase, ModeRelease, ModePunish:
		return true
	}
	return false
}

type Learner struct {
	alignment *Alignment
	params    Params
	logger    *zap.Logger
}

func NewLearner(params Params, logger *zap.Logger) *Learner {
	return NewLearnerFrom(New(), params, logger)
}

// NewLearnerFrom continues learning on an existing alignment.
func NewLearnerFrom(a *Alignment, params Params, logger *zap.Logger) *Learner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Learner{alignment: a, params: params, logger: logger}
}

func (l *Learner) Alignment() *Alignment {
	return l.alignment
}

func (l *Learner) Params() Params {
	return l.params
}

// Extract returns the learner's current best guess at the regula.
func (l *Learner) Extract() domain.Regula {
	return Extract(l.alignment, l.params.Extract)
}

// Learn dispatches to the pass sequence of mode.
func (l *Learner) Learn(mode Mode, in domain.Interaction, policy domain.Policy, guilty domain.GuiltySet) error {
	if err := in.Validate(); err != nil {
		return err
	}
	switch mode {
	case ModeBase:
		l.LearnBase(in)
	case ModeRelease:
		l.LearnRelease(in, policy)
	case ModePunish:
		l.LearnPunish(in, policy, guilty)
	default:
		return fmt.Errorf("unknown learner mode %q", mode)
	}
	return nil
}

func (l *Learner) LearnBase(in domain.Interaction) {
	l.register(in)
	for i := range in {
		l.updateCreates(in, i)
	}
}

// LearnRelease treats both agents as possible cancellers. The policy and
// punishment passes only run when a policy is in force.
func (l *Learner) LearnRelease(in domain.Interaction, policy domain.Policy) {
	l.register(in)
	for i := range in {
		l.updateCreates(in, i)
	}
	l.updateCancels(in, domain.BothGuilty())
	if len(policy) > 0 {
		l.policyPass(in, policy)
		l.punishCreates(in)
	}
	l.prune()
}

func (l *Learner) LearnPunish(in domain.Interaction, policy domain.Policy, guilty domain.GuiltySet) {
	l.register(in)
	for i := range in {
		l.updateCreates(in, i)
	}
	l.updateCancels(in, guilty)
	if len(policy) > 0 {
		l.policyPass(in, policy)
	}
	l.punishCreates(in)
	l.prune()
}

func (l *Learner) register(in domain.Interaction) {
	for _, u := range in {
		l.alignment.Register(u.Token)
	}
}

func (l *Learner) prune() {
	if n := l.alignment.Prune(l.params.Prune); n > 0 {
		l.logger.Debug("pruned hypotheses", zap.Int("removed", n))
	}
}

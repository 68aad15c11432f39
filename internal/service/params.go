package service

import (
	"fmt"

	"github.com/Harshitk-cp/regula/internal/alignment"
	"github.com/Harshitk-cp/regula/internal/domain"
)

// ProfileDialogue names the override profile used by dialogue experiments.
const ProfileDialogue = "dialogue"

var (
	basicParams = alignment.Params{
		Create: 2, Cancel: 2, Release: 2, PunishCreate: 200, NoCancel: 200,
		Policy: 2, PunishOpen: 0.2, Prune: 10, Extract: 30,
	}
	punishParams = alignment.Params{
		Create: 3, Cancel: 3, Release: 1, PunishCreate: 200, NoCancel: 20,
		Policy: 2, PunishOpen: 0.8, Prune: 10, Extract: 30,
	}
	policyParams = alignment.Params{
		Create: 2, Cancel: 2, Release: 0.5, PunishCreate: 200, NoCancel: 20,
		Policy: 2, PunishOpen: 0.5, Prune: 10, Extract: 10,
	}
	dialogueParams = alignment.Params{
		Create: 4, Cancel: 2, Release: 2, PunishCreate: 200, NoCancel: 0.7,
		Policy: 2, PunishOpen: 0.5, Prune: 10, Extract: 10,
	}
)

// Profiles resolves learning parameters per experiment type, applying
// overrides loaded from a parameters file on top of the built-in values.
type Profiles struct {
	overrides map[string]map[string]float64
}

// NewProfiles validates overrides keyed by experiment type or "dialogue".
func NewProfiles(overrides map[string]map[string]float64) (*Profiles, error) {
	for name, values := range overrides {
		if name != ProfileDialogue && !domain.ValidExperimentType(name) {
			return nil, fmt.Errorf("%w: unknown parameter profile %q", ErrInvalidExperiment, name)
		}
		if _, err := (alignment.Params{}).Merge(values); err != nil {
			return nil, fmt.Errorf("%w: profile %s: %v", ErrInvalidExperiment, name, err)
		}
	}
	return &Profiles{overrides: overrides}, nil
}

// For returns the parameters of experiment type t for a vocabulary of the
// given size. The excuse threshold ep2 scales as 2/size unless overridden.
func (p *Profiles) For(t domain.ExperimentType, vocabularySize int) (alignment.Params, error) {
	var params alignment.Params
	switch t {
	case domain.TypePunish:
		params = punishParams
	case domain.TypePolicy:
		params = policyParams
	case domain.TypeBasic, domain.TypeCreate, domain.TypeRelease, domain.TypeFrequency:
		params = basicParams
	default:
		return params, fmt.Errorf("%w: unknown experiment type %q", ErrInvalidExperiment, t)
	}
	params.Confidence = 2 / float64(vocabularySize)
	return p.apply(string(t), params)
}

// Dialogue returns the parameters used to train the learned side of a
// dialogue experiment.
func (p *Profiles) Dialogue(vocabularySize int) (alignment.Params, error) {
	params := dialogueParams
	params.Confidence = 3 / float64(vocabularySize)
	return p.apply(ProfileDialogue, params)
}

func (p *Profiles) apply(name string, params alignment.Params) (alignment.Params, error) {
	if p == nil {
		return params, nil
	}
	merged, err := params.Merge(p.overrides[name])
	if err != nil {
		return params, fmt.Errorf("%w: %v", ErrInvalidExperiment, err)
	}
	return merged, nil
}

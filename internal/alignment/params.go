package alignment

import (
	"fmt"
)

// Params are the learning weights. The yaml/json keys are the short names
// used in parameter profile files.
type Params struct {
	Create       float64 `yaml:"p0" json:"p0"`   // reward per create hypothesis
	Cancel       float64 `yaml:"p1" json:"p1"`   // reward per cancel attribution
	Release      float64 `yaml:"p2" json:"p2"`   // reward per release attribution
	PunishCreate float64 `yaml:"p3" json:"p3"`   // create detached with nothing after it
	NoCancel     float64 `yaml:"p4" json:"p4"`   // cancel hypothesis of an innocent agent
	Policy       float64 `yaml:"p5" json:"p5"`   // cancel hypothesis contradicted by the policy
	PunishOpen   float64 `yaml:"p6" json:"p6"`   // create left open with no excuse
	Prune        float64 `yaml:"ep" json:"ep"`   // pruning margin
	Extract      float64 `yaml:"epp" json:"epp"` // extraction tie margin
	Confidence   float64 `yaml:"ep2" json:"ep2"` // normalized score an excuse needs
}

func (p Params) Validate() error {
	for name, v := range p.AsMap() {
		if v < 0 {
			return fmt.Errorf("parameter %s must not be negative, got %v", name, v)
		}
	}
	return nil
}

func (p Params) AsMap() map[string]float64 {
	return map[string]float64{
		"p0":  p.Create,
		"p1":  p.Cancel,
		"p2":  p.Release,
		"p3":  p.PunishCreate,
		"p4":  p.NoCancel,
		"p5":  p.Policy,
		"p6":  p.PunishOpen,
		"ep":  p.Prune,
		"epp": p.Extract,
		"ep2": p.Confidence,
	}
}

// Merge returns p with every key present in m overridden. Unknown keys are
// an error.
func (p Params) Merge(m map[string]float64) (Params, error) {
	for k, v := range m {
		switch k {
		case "p0":
			p.Create = v
		case "p1":
			p.Cancel = v
		case "p2":
			p.Release = v
		case "p3":
			p.PunishCreate = v
		case "p4":
			p.NoCancel = v
		case "p5":
			p.Policy = v
		case "p6":
			p.PunishOpen = v
		case "ep":
			p.Prune = v
		case "epp":
			p.Extract = v
		case "ep2":
			p.Confidence = v
		default:
			return p, fmt.Errorf("unknown learning parameter %q", k)
		}
	}
	return p, nil
}

package generator

import (
	"fmt"

	"github.com/Harshitk-cp/regula/internal/domain"
	"go.uber.org/zap"
)

// Mode selects which operations a generated regula may use.
type Mode string

const (
	// ModeCreate allows only none and create rules.
	ModeCreate Mode = "create"
	// ModeRelease adds releases of existing create pairs.
	ModeRelease Mode = "release"
	// ModeCancel adds cancels too and requires at least one.
	ModeCancel Mode = "cancel"
)

func ValidMode(m string) bool {
	switch Mode(m) {
	case ModeCreate, ModeRelease, ModeCancel:
		return true
	}
	return false
}

type pair struct {
	antecedent, consequent domain.Token
}

// Regula draws one rule per vocabulary token. Cancels and releases only
// target pairs of rules already drawn, at most once each. The whole draw is
// repeated until it has at least one cancel (ModeCancel) or at least one
// rule that is not none (other modes).
func (g *Generator) Regula(vocab domain.Vocabulary, mode Mode) (domain.Regula, error) {
	if !ValidMode(string(mode)) {
		return nil, fmt.Errorf("%w: unknown regula mode %q", ErrUngenerable, mode)
	}
	if len(vocab) < 3 {
		return nil, fmt.Errorf("%w: a create rule needs at least 3 tokens, vocabulary has %d", ErrUngenerable, len(vocab))
	}

	limit := g.maxAttempts()
	for attempt := 1; attempt <= limit; attempt++ {
		r := g.drawRegula(vocab, mode)
		if accepted(r, mode) {
			g.logger.Debug("regula generated",
				zap.String("mode", string(mode)),
				zap.Int("attempts", attempt),
				zap.Int("creates", r.Count(domain.OpCreate)),
				zap.Int("cancels", r.Count(domain.OpCancel)),
				zap.Int("releases", r.Count(domain.OpRelease)))
			return r, nil
		}
	}
	g.logger.Warn("regula generation exhausted attempts",
		zap.String("mode", string(mode)),
		zap.Int("vocabulary_size", len(vocab)),
		zap.Int("max_attempts", limit))
	return nil, fmt.Errorf("%w: no %s regula for %d tokens after %d attempts", ErrUngenerable, mode, len(vocab), limit)
}

func accepted(r domain.Regula, mode Mode) bool {
	if mode == ModeCancel {
		return r.Count(domain.OpCancel) > 0
	}
	return r.Count(domain.OpNone) < len(r)
}

func (g *Generator) drawRegula(vocab domain.Vocabulary, mode Mode) domain.Regula {
	r := make(domain.Regula, len(vocab))
	order := make([]domain.Token, 0, len(vocab))

	for _, v := range vocab {
		uncancelled := openPairs(r, order, v, domain.OpCancel)
		unreleased := openPairs(r, order, v, domain.OpRelease)

		options := []domain.Operation{domain.OpNone, domain.OpCreate}
		if mode != ModeCreate {
			if len(unreleased) > 0 {
				options = append(options, domain.OpRelease)
			}
			if mode == ModeCancel && len(uncancelled) > 0 {
				if r.Count(domain.OpCancel) == 0 {
					options = []domain.Operation{domain.OpCancel}
				} else {
					options = append(options, domain.OpCancel)
				}
			}
		}

		var rule domain.Commitment
		switch options[g.rng.IntN(len(options))] {
		case domain.OpCreate:
			antecedent := g.pick(vocab.Without(v))
			consequent := g.pick(vocab.Without(v, antecedent))
			rule = domain.Create(antecedent, consequent)
		case domain.OpCancel:
			p := uncancelled[g.rng.IntN(len(uncancelled))]
			rule = domain.Cancel(p.antecedent, p.consequent)
		case domain.OpRelease:
			p := unreleased[g.rng.IntN(len(unreleased))]
			rule = domain.Release(p.antecedent, p.consequent)
		default:
			rule = domain.None()
		}
		r[v] = rule
		order = append(order, v)
	}
	return r
}

// openPairs lists create pairs drawn so far that do not mention v and are not
// yet targeted by a rule with operation op.
func openPairs(r domain.Regula, order []domain.Token, v domain.Token, op domain.Operation) []pair {
	var out []pair
	for _, t := range order {
		c := r[t]
		if c.Operation != domain.OpCreate || c.Antecedent == v || c.Consequent == v {
			continue
		}
		taken := false
		for _, o := range order {
			if r[o].Is(op, c.Antecedent, c.Consequent) {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, pair{c.Antecedent, c.Consequent})
		}
	}
	return out
}

package generator

import (
	"github.com/Harshitk-cp/regula/internal/domain"
	"go.uber.org/zap"
)

// Policy guards up to size distinct create pairs of r. Each guarded pair is
// keyed as a cancel rule, with its consequent wildcarded when wildcard is
// set, and mapped to a precondition token that is not a cancel token, not
// part of the pair, and not itself the create rule for the pair.
func (g *Generator) Policy(r domain.Regula, size int, wildcard bool) domain.Policy {
	policy := domain.Policy{}
	creates := r.Creates()

	for i := 0; i < size && len(creates) > 0; i++ {
		idx := g.rng.IntN(len(creates))
		guarded := creates[idx]
		creates = append(creates[:idx], creates[idx+1:]...)

		key := domain.Cancel(guarded.Antecedent, guarded.Consequent)
		if wildcard {
			key = domain.Cancel(guarded.Antecedent, domain.Wildcard)
		}
		if _, exists := policy[key]; exists {
			continue
		}

		var candidates []domain.Token
		for _, t := range r.Tokens() {
			rule := r.Rule(t)
			if rule.Operation == domain.OpCancel || t == guarded.Antecedent || t == guarded.Consequent || rule == guarded {
				continue
			}
			candidates = append(candidates, t)
		}
		if len(candidates) == 0 {
			continue
		}
		policy[key] = g.pick(candidates)
	}

	g.logger.Debug("policy generated", zap.Int("requested", size), zap.Int("entries", len(policy)))
	return policy
}

package alignment

import (
	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/semantics"
	"go.uber.org/zap"
)

// updateCreates rewards create(j, h) for the token at i, for every first
// counterpart utterance j after i and every later debtor utterance h, with
// all three tokens distinct. A pair seen through several h positions is
// rewarded once per position.
func (l *Learner) updateCreates(in domain.Interaction, i int) {
	debtor := in[i].Agent
	v := in[i].Token
	seen := make(map[domain.Token]bool)

	for j := i + 1; j < len(in); j++ {
		if in[j].Agent != debtor.Other() || seen[in[j].Token] {
			continue
		}
		ant := in[j].Token
		seen[ant] = true
		for h := j + 1; h < len(in); h++ {
			if in[h].Agent != debtor {
				continue
			}
			cons := in[h].Token
			if ant == v || cons == v || cons == ant {
				continue
			}
			c := domain.Create(ant, cons)
			l.alignment.Add(v, c, l.params.Create)
			l.logger.Debug("reward create", zap.String("token", string(v)), zap.Stringer("rule", c))
		}
	}
}

// updateCancels attributes the non-discharge of confident create hypotheses
// to cancels by the debtor (when guilty) and releases by the creditor. A
// detached hypothesis with nothing said after it is penalized instead.
func (l *Learner) updateCancels(in domain.Interaction, guilty domain.GuiltySet) {
	for _, agent := range []domain.Agent{domain.AgentOne, domain.AgentZero} {
		if !guilty.Has(agent) {
			l.noCancels(in, agent)
		}
	}

	for i, u := range in {
		v := u.Token
		debtor := u.Agent
		creditor := debtor.Other()
		norm := l.alignment.Normalize(v)
		cancelled := make(map[attribution]bool)
		released := make(map[attribution]bool)

		for _, c := range l.alignment.Hypotheses(v, domain.OpCreate) {
			conf, ok := norm[c]
			if !ok {
				continue
			}
			rest := in.From(i + 1)
			h := rest.Index(creditor, c.Antecedent)
			if h < 0 {
				continue
			}
			if rest.From(h).Contains(debtor, c.Consequent) {
				continue
			}

			rewarded := false
			for _, m := range rest {
				w := m.Token
				if w == v || w == c.Antecedent || w == c.Consequent {
					continue
				}
				key := attribution{w, c.Antecedent, c.Consequent}
				var (
					rule domain.Commitment
					upd  float64
				)
				switch {
				case m.Agent == debtor && guilty.Has(debtor) && !cancelled[key]:
					rule = domain.Cancel(c.Antecedent, c.Consequent)
					upd = l.params.Cancel
					cancelled[key] = true
				case m.Agent == creditor && !released[key]:
					rule = domain.Release(c.Antecedent, c.Consequent)
					upd = l.params.Release
					released[key] = true
				default:
					continue
				}
				rewarded = true
				l.alignment.Add(w, rule, upd*conf*conf)
				l.logger.Debug("reward attribution",
					zap.String("token", string(w)),
					zap.Stringer("rule", rule),
					zap.Float64("confidence", conf))
			}

			if !rewarded {
				l.alignment.Adjust(v, c, -l.params.PunishCreate)
				l.logger.Debug("punish create", zap.String("token", string(v)), zap.Stringer("rule", c))
			}
		}
	}
}

type attribution struct {
	token, antecedent, consequent domain.Token
}

// noCancels penalizes cancel hypotheses on the utterances of an agent that
// cancelled nothing, for every create hypothesis of that agent whose
// antecedent the counterpart went on to say.
func (l *Learner) noCancels(in domain.Interaction, agent domain.Agent) {
	for i, u := range in {
		if u.Agent != agent {
			continue
		}
		for _, c := range l.alignment.Hypotheses(u.Token, domain.OpCreate) {
			cancel := domain.Cancel(c.Antecedent, c.Consequent)
			for j := i; j < len(in); j++ {
				if in[j].Agent != agent.Other() || in[j].Token != c.Antecedent {
					continue
				}
				for _, m := range in.From(i) {
					if m.Agent == agent && l.alignment.Adjust(m.Token, cancel, -l.params.NoCancel) {
						l.logger.Debug("punish missing cancel", zap.String("token", string(m.Token)), zap.Stringer("rule", cancel))
					}
				}
			}
		}
	}
}

// policyPass penalizes cancel hypotheses of a token once per precondition
// that would have blocked the cancel where the token was said.
func (l *Learner) policyPass(in domain.Interaction, policy domain.Policy) {
	for i, u := range in {
		if !l.alignment.Registered(u.Token) {
			continue
		}
		prefix := in.Prefix(i)
		for _, pc := range l.alignment.Hypotheses(u.Token, domain.OpCancel) {
			for range semantics.PolicyBlockers(pc, prefix, policy) {
				l.alignment.Adjust(u.Token, pc, -l.params.Policy)
				l.logger.Debug("punish policy cancel", zap.String("token", string(u.Token)), zap.Stringer("rule", pc))
			}
		}
	}
}

// punishCreates penalizes create hypotheses left open by their debtor when
// no token of the interaction confidently cancels or releases the pair.
func (l *Learner) punishCreates(in domain.Interaction) {
	for _, u := range in {
		for _, c := range l.alignment.Hypotheses(u.Token, domain.OpCreate) {
			if !semantics.IsOpenBy(u.Token, c, u.Agent, in) || l.excused(in, c) {
				continue
			}
			l.alignment.Adjust(u.Token, c, -l.params.PunishOpen)
			l.logger.Debug("punish open create", zap.String("token", string(u.Token)), zap.Stringer("rule", c))
		}
	}
}

func (l *Learner) excused(in domain.Interaction, c domain.Commitment) bool {
	cancel := domain.Cancel(c.Antecedent, c.Consequent)
	release := domain.Release(c.Antecedent, c.Consequent)
	for _, m := range in {
		norm := l.alignment.Normalize(m.Token)
		if s, ok := norm[cancel]; ok && s >= l.params.Confidence {
			return true
		}
		if s, ok := norm[release]; ok && s >= l.params.Confidence {
			return true
		}
	}
	return false
}

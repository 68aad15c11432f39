package generator

import (
	"fmt"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/semantics"
	"go.uber.org/zap"
)

// Result is an accepted interaction together with the agents that uttered
// a cancel token while producing it.
type Result struct {
	Interaction domain.Interaction
	Guilty      domain.GuiltySet
	Attempts    int
}

// Alternating returns the turn pattern 0,1,0,1,... of length bound.
func Alternating(bound int) []domain.Agent {
	if bound < 0 {
		bound = 0
	}
	pattern := make([]domain.Agent, bound)
	for i := range pattern {
		pattern[i] = domain.Agent(i % 2)
	}
	return pattern
}

// Interaction generates a policy-compliant interaction of up to bound
// alternating turns that ends with no detached commitment. times replicates
// discharging tokens to raise their priority.
func (g *Generator) Interaction(r domain.Regula, vocab domain.Vocabulary, bound int, policy domain.Policy, times int) (*Result, error) {
	return g.InteractionWithPattern(r, vocab, Alternating(bound), policy, times)
}

// InteractionWithPattern is Interaction with an explicit speaker per turn.
// Attempts that leave a commitment detached are discarded whole and redrawn.
func (g *Generator) InteractionWithPattern(r domain.Regula, vocab domain.Vocabulary, pattern []domain.Agent, policy domain.Policy, times int) (*Result, error) {
	if times < 1 {
		times = 1
	}
	limit := g.maxAttempts()
	for attempt := 1; attempt <= limit; attempt++ {
		in := g.attempt(r, vocab, pattern, policy, times)
		if !semantics.Settled(r, in) {
			g.logger.Debug("interaction rejected", zap.Int("attempt", attempt), zap.Stringer("interaction", in))
			continue
		}
		return &Result{
			Interaction: in,
			Guilty:      semantics.Cancellers(r, in),
			Attempts:    attempt,
		}, nil
	}
	g.logger.Warn("interaction generation exhausted attempts",
		zap.Int("bound", len(pattern)),
		zap.Int("max_attempts", limit))
	return nil, fmt.Errorf("%w: no settled interaction of length %d after %d attempts", ErrUngenerable, len(pattern), limit)
}

func (g *Generator) attempt(r domain.Regula, vocab domain.Vocabulary, pattern []domain.Agent, policy domain.Policy, times int) domain.Interaction {
	in := make(domain.Interaction, 0, len(pattern))
	for _, speaker := range pattern {
		tok, ok := g.choose(r, vocab, in, policy, speaker, times)
		if !ok {
			break
		}
		in = append(in, domain.Utterance{Agent: speaker, Token: tok})
	}
	return in
}

// choose picks the next token for speaker. It returns false when nothing
// can be said, which truncates the interaction.
func (g *Generator) choose(r domain.Regula, vocab domain.Vocabulary, in domain.Interaction, policy domain.Policy, speaker domain.Agent, times int) (domain.Token, bool) {
	other := speaker.Other()

	var eligible []domain.Token
	isEligible := make(map[domain.Token]bool, len(vocab))
	for _, v := range vocab {
		if semantics.PolicyOK(r.Rule(v), in, policy) {
			eligible = append(eligible, v)
			isEligible[v] = true
		}
	}

	detached := semantics.DetachedBy(r, speaker, in)
	detachedOther := semantics.DetachedBy(r, other, in)

	var (
		fresh     []domain.Token // not already binding the speaker
		positive  []domain.Token
		plain     []domain.Token
		cancels   []domain.Token
		releases  []domain.Token
		discharge []domain.Token
		toDetach  []domain.Token
	)
	for _, v := range eligible {
		rule := r.Rule(v)
		if !semantics.IsActiveBy(r, v, speaker, in) && !semantics.IsDetachedBy(r, v, speaker, in) {
			fresh = append(fresh, v)
		}
		switch rule.Operation {
		case domain.OpCreate:
			positive = append(positive, v)
			plain = append(plain, v)
		case domain.OpCancel:
			if containsPair(detached, rule) {
				cancels = append(cancels, v)
			}
		case domain.OpRelease:
			if containsPair(detachedOther, rule) {
				releases = append(releases, v)
			}
		default:
			plain = append(plain, v)
		}
	}
	for _, c := range detached {
		if isEligible[c.Consequent] {
			discharge = append(discharge, c.Consequent)
		}
	}
	for _, v := range vocab {
		if semantics.IsActiveBy(r, v, other, in) && isEligible[r.Rule(v).Antecedent] {
			toDetach = append(toDetach, r.Rule(v).Antecedent)
		}
	}

	if len(plain) == 0 {
		return "", false
	}

	var choices []domain.Token
	switch {
	case len(detached) > 0:
		for i := 0; i < times; i++ {
			choices = append(choices, discharge...)
		}
		choices = append(choices, toDetach...)
		choices = append(choices, cancels...)
		choices = append(choices, fresh...)
	case len(toDetach) > 0 || len(releases) > 0:
		choices = append(choices, toDetach...)
		choices = append(choices, toDetach...)
		choices = append(choices, releases...)
		choices = append(choices, g.sample(eligible, min(3, len(fresh)))...)
	case len(positive) > 0:
		choices = append(choices, positive...)
		choices = append(choices, positive...)
		choices = append(choices, eligible...)
	default:
		choices = append(choices, eligible...)
		choices = append(choices, hardTokens(policy, eligible, in)...)
	}
	if len(choices) == 0 {
		return "", false
	}
	return g.pick(choices), true
}

func containsPair(rules []domain.Commitment, c domain.Commitment) bool {
	for _, r := range rules {
		if r.SamePair(c) {
			return true
		}
	}
	return false
}

// hardTokens are policy preconditions that still matter: eligible and not
// yet said by agent zero, or already said by agent one.
func hardTokens(policy domain.Policy, eligible []domain.Token, in domain.Interaction) []domain.Token {
	ok := make(map[domain.Token]bool, len(eligible))
	for _, t := range eligible {
		ok[t] = true
	}
	var out []domain.Token
	for _, e := range policy.Entries() {
		p := e.Precondition
		if (ok[p] && !in.Contains(domain.AgentZero, p)) || in.Contains(domain.AgentOne, p) {
			out = append(out, p)
		}
	}
	return out
}

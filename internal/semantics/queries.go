package semantics

import "github.com/Harshitk-cp/regula/internal/domain"

// SaidBy reports whether agent uttered tok anywhere in in.
func SaidBy(in domain.Interaction, agent domain.Agent, tok domain.Token) bool {
	return in.Contains(agent, tok)
}

// Said reports whether any agent uttered tok.
func Said(in domain.Interaction, tok domain.Token) bool {
	for _, u := range in {
		if u.Token == tok {
			return true
		}
	}
	return false
}

// IsActiveBy reports whether the create rule of tok, first uttered by
// agent, is still waiting for the counterpart's antecedent.
func IsActiveBy(r domain.Regula, tok domain.Token, agent domain.Agent, in domain.Interaction) bool {
	c := r.Rule(tok)
	if c.Operation != domain.OpCreate {
		return false
	}
	n := in.Index(agent, tok)
	if n < 0 {
		return false
	}
	return !in.From(n).Contains(agent.Other(), c.Antecedent)
}

// IsDetachedBy reports whether some utterance of tok by agent created a
// commitment whose antecedent the counterpart later uttered, and which agent
// has neither discharged nor cancelled and the counterpart has not released.
func IsDetachedBy(r domain.Regula, tok domain.Token, agent domain.Agent, in domain.Interaction) bool {
	c := r.Rule(tok)
	if c.Operation != domain.OpCreate {
		return false
	}
	for _, n := range in.Positions(agent, tok) {
		window := in.From(n)
		a := window.Index(agent.Other(), c.Antecedent)
		if a < 0 {
			continue
		}
		if window.From(a).Contains(agent, c.Consequent) {
			continue
		}
		if Cancelled(r, window, agent, c) || Released(r, window, agent.Other(), c) {
			continue
		}
		return true
	}
	return false
}

// IsOpenBy is IsDetachedBy for an explicit commitment c attached to tok,
// ignoring cancels and releases. It tells whether the obligation was ever
// triggered and left unanswered.
func IsOpenBy(tok domain.Token, c domain.Commitment, agent domain.Agent, in domain.Interaction) bool {
	if c.Operation != domain.OpCreate {
		return false
	}
	for _, n := range in.Positions(agent, tok) {
		window := in.From(n)
		a := window.Index(agent.Other(), c.Antecedent)
		if a < 0 {
			continue
		}
		if !window.From(a).Contains(agent, c.Consequent) {
			return true
		}
	}
	return false
}

// IsDischargedBy chases first occurrences: debtor utters tok, creditor then
// utters the antecedent, debtor then utters the consequent.
func IsDischargedBy(tok domain.Token, c domain.Commitment, debtor, creditor domain.Agent, in domain.Interaction) bool {
	if c.Operation != domain.OpCreate {
		return false
	}
	n := in.Index(debtor, tok)
	if n < 0 {
		return false
	}
	rest := in.From(n)
	a := rest.Index(creditor, c.Antecedent)
	if a < 0 {
		return false
	}
	return rest.From(a).Contains(debtor, c.Consequent)
}

// Discharged lists the create rules of r discharged in in, by either agent,
// in token order.
func Discharged(r domain.Regula, in domain.Interaction) []domain.Commitment {
	var out []domain.Commitment
	for _, tok := range r.Tokens() {
		c := r.Rule(tok)
		if c.Operation != domain.OpCreate {
			continue
		}
		for _, debtor := range []domain.Agent{domain.AgentZero, domain.AgentOne} {
			if IsDischargedBy(tok, c, debtor, debtor.Other(), in) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Cancelled reports whether agent uttered a token whose rule cancels c's pair.
func Cancelled(r domain.Regula, in domain.Interaction, agent domain.Agent, c domain.Commitment) bool {
	return utteredOp(r, in, agent, domain.OpCancel, c)
}

// Released reports whether agent uttered a token whose rule releases c's pair.
func Released(r domain.Regula, in domain.Interaction, agent domain.Agent, c domain.Commitment) bool {
	return utteredOp(r, in, agent, domain.OpRelease, c)
}

func utteredOp(r domain.Regula, in domain.Interaction, agent domain.Agent, op domain.Operation, c domain.Commitment) bool {
	for _, u := range in {
		if u.Agent != agent {
			continue
		}
		if r.Rule(u.Token).Is(op, c.Antecedent, c.Consequent) {
			return true
		}
	}
	return false
}

// DetachedBy returns the rules, in token order, detached with agent as debtor.
func DetachedBy(r domain.Regula, agent domain.Agent, in domain.Interaction) []domain.Commitment {
	var out []domain.Commitment
	for _, tok := range r.Tokens() {
		if IsDetachedBy(r, tok, agent, in) {
			out = append(out, r.Rule(tok))
		}
	}
	return out
}

// ActiveBy returns the rules, in token order, active with agent as debtor.
func ActiveBy(r domain.Regula, agent domain.Agent, in domain.Interaction) []domain.Commitment {
	var out []domain.Commitment
	for _, tok := range r.Tokens() {
		if IsActiveBy(r, tok, agent, in) {
			out = append(out, r.Rule(tok))
		}
	}
	return out
}

// Settled reports whether neither agent has a detached commitment.
func Settled(r domain.Regula, in domain.Interaction) bool {
	return len(DetachedBy(r, domain.AgentZero, in)) == 0 && len(DetachedBy(r, domain.AgentOne, in)) == 0
}

// Cancellers returns the agents that uttered at least one cancel token.
func Cancellers(r domain.Regula, in domain.Interaction) domain.GuiltySet {
	g := domain.GuiltySet{}
	for _, u := range in {
		if r.Rule(u.Token).Operation == domain.OpCancel {
			g[u.Agent] = true
		}
	}
	return g
}

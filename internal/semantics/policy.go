package semantics

import "github.com/Harshitk-cp/regula/internal/domain"

// PolicyBlockers returns the preconditions of c that block it in the prefix
// in: tokens agent one has uttered and agent zero has not answered. Rules
// other than cancel are never blocked.
func PolicyBlockers(c domain.Commitment, in domain.Interaction, p domain.Policy) []domain.Token {
	if c.Operation != domain.OpCancel || len(p) == 0 {
		return nil
	}
	var out []domain.Token
	for _, pre := range p.Preconditions(c) {
		if !in.Contains(domain.AgentZero, pre) && in.Contains(domain.AgentOne, pre) {
			out = append(out, pre)
		}
	}
	return out
}

// PolicyOK reports whether c may be uttered after the prefix in.
func PolicyOK(c domain.Commitment, in domain.Interaction, p domain.Policy) bool {
	return len(PolicyBlockers(c, in, p)) == 0
}

// Package alignment holds the online learner that reconstructs a regula from
// observed interactions.
//
// An Alignment maps every observed token to scored candidate rules. Scores
// are raw and unbounded; Normalize derives a per-token confidence
// distribution from the positive scores without touching them. A Learner
// owns exactly one Alignment and updates it one interaction at a time.
package alignment

import (
	"sort"

	"github.com/Harshitk-cp/regula/internal/domain"
)

type Alignment struct {
	scores map[domain.Token]map[domain.Commitment]float64
}

func New() *Alignment {
	return &Alignment{scores: make(map[domain.Token]map[domain.Commitment]float64)}
}

// FromRows rebuilds an alignment from its row form.
func FromRows(rows []domain.HypothesisRow) *Alignment {
	a := New()
	for _, r := range rows {
		a.Register(r.Token)
		if !r.Rule.IsNone() {
			a.scores[r.Token][r.Rule.Normalized()] = r.Score
		}
	}
	return a
}

// Register adds t with an empty hypothesis set if it is not known yet.
func (a *Alignment) Register(t domain.Token) {
	if _, ok := a.scores[t]; !ok {
		a.scores[t] = make(map[domain.Commitment]float64)
	}
}

func (a *Alignment) Registered(t domain.Token) bool {
	_, ok := a.scores[t]
	return ok
}

func (a *Alignment) Len() int {
	return len(a.scores)
}

// Tokens returns the registered tokens in sorted order.
func (a *Alignment) Tokens() []domain.Token {
	tokens := make([]domain.Token, 0, len(a.scores))
	for t := range a.scores {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}

// Add moves the score of c for t by delta, creating the hypothesis at zero
// first if needed.
func (a *Alignment) Add(t domain.Token, c domain.Commitment, delta float64) {
	a.Register(t)
	a.scores[t][c.Normalized()] += delta
}

// Adjust moves the score of an existing hypothesis and reports whether it
// existed.
func (a *Alignment) Adjust(t domain.Token, c domain.Commitment, delta float64) bool {
	h, ok := a.scores[t]
	if !ok {
		return false
	}
	c = c.Normalized()
	if _, ok := h[c]; !ok {
		return false
	}
	h[c] += delta
	return true
}

func (a *Alignment) Score(t domain.Token, c domain.Commitment) (float64, bool) {
	s, ok := a.scores[t][c.Normalized()]
	return s, ok
}

func (a *Alignment) Has(t domain.Token, c domain.Commitment) bool {
	_, ok := a.Score(t, c)
	return ok
}

// Hypotheses returns the rules held for t with operation op, ordered by
// their string form.
func (a *Alignment) Hypotheses(t domain.Token, op domain.Operation) []domain.Commitment {
	var out []domain.Commitment
	for c := range a.scores[t] {
		if c.Operation == op {
			out = append(out, c)
		}
	}
	sortRules(out)
	return out
}

// Normalize returns the positive scores of t divided by their sum. Tokens
// with no positive score yield an empty distribution.
func (a *Alignment) Normalize(t domain.Token) map[domain.Commitment]float64 {
	out := make(map[domain.Commitment]float64)
	sum := 0.0
	for _, s := range a.scores[t] {
		if s > 0 {
			sum += s
		}
	}
	if sum == 0 {
		return out
	}
	for c, s := range a.scores[t] {
		if s > 0 {
			out[c] = s / sum
		}
	}
	return out
}

// Prune drops, per token, every hypothesis with a negative score or one
// trailing the token's best score by more than eps. It returns the number
// of hypotheses removed.
func (a *Alignment) Prune(eps float64) int {
	removed := 0
	for _, h := range a.scores {
		if len(h) == 0 {
			continue
		}
		best := maxScore(h)
		for c, s := range h {
			if s < 0 || best-s > eps {
				delete(h, c)
				removed++
			}
		}
	}
	return removed
}

// Rows flattens the alignment into token then rule order. Registered tokens
// without hypotheses appear once with the none rule and a zero score.
func (a *Alignment) Rows() []domain.HypothesisRow {
	var rows []domain.HypothesisRow
	for _, t := range a.Tokens() {
		h := a.scores[t]
		if len(h) == 0 {
			rows = append(rows, domain.HypothesisRow{Token: t, Rule: domain.None()})
			continue
		}
		rules := make([]domain.Commitment, 0, len(h))
		for c := range h {
			rules = append(rules, c)
		}
		sortRules(rules)
		for _, c := range rules {
			rows = append(rows, domain.HypothesisRow{Token: t, Rule: c, Score: h[c]})
		}
	}
	return rows
}

func (a *Alignment) Clone() *Alignment {
	out := New()
	for t, h := range a.scores {
		out.Register(t)
		for c, s := range h {
			out.scores[t][c] = s
		}
	}
	return out
}

func maxScore(h map[domain.Commitment]float64) float64 {
	first := true
	best := 0.0
	for _, s := range h {
		if first || s > best {
			best = s
			first = false
		}
	}
	return best
}

func sortRules(rules []domain.Commitment) {
	sort.Slice(rules, func(i, j int) bool { return rules[i].String() < rules[j].String() })
}

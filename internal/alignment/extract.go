package alignment

import (
	"github.com/Harshitk-cp/regula/internal/domain"
)

// Extract picks the best-scored rule for every registered token. A token
// whose best rule has a rival scoring within eps of it, or whose best score
// is not positive, gets the none rule.
func Extract(a *Alignment, eps float64) domain.Regula {
	out := make(domain.Regula, a.Len())
	for _, t := range a.Tokens() {
		out[t] = best(a.scores[t], eps)
	}
	return out
}

func best(h map[domain.Commitment]float64, eps float64) domain.Commitment {
	if len(h) == 0 {
		return domain.None()
	}
	rules := make([]domain.Commitment, 0, len(h))
	for c := range h {
		rules = append(rules, c)
	}
	sortRules(rules)

	top := rules[0]
	for _, c := range rules[1:] {
		if h[c] > h[top] {
			top = c
		}
	}
	if h[top] <= 0 {
		return domain.None()
	}
	for _, c := range rules {
		if c != top && h[top]-h[c] <= eps {
			return domain.None()
		}
	}
	return top
}

type Evaluation struct {
	Precision  float64           `json:"precision"`
	Recall     float64           `json:"recall"`
	Mismatches []domain.Mismatch `json:"mismatches,omitempty"`
	Learned    domain.Regula     `json:"learned"`
}

// Converged reports whether every token of the truth was learned exactly.
func (e Evaluation) Converged() bool {
	return e.Precision == 1 && e.Recall == 1
}

// Evaluate extracts a regula from a and scores it against truth. Precision
// is over registered tokens, recall over the whole truth. An empty
// alignment scores zero on both.
func Evaluate(truth domain.Regula, a *Alignment, eps float64) Evaluation {
	learned := Extract(a, eps)
	if len(learned) == 0 || len(truth) == 0 {
		return Evaluation{Learned: learned}
	}
	return Compare(truth, learned)
}

// Compare scores learned against truth token by token.
func Compare(truth, learned domain.Regula) Evaluation {
	eval := Evaluation{Learned: learned}
	if len(learned) == 0 || len(truth) == 0 {
		return eval
	}
	correct := 0
	for _, t := range learned.Tokens() {
		want, guess := truth.Rule(t), learned.Rule(t)
		if want == guess {
			correct++
			continue
		}
		eval.Mismatches = append(eval.Mismatches, domain.Mismatch{Token: t, Truth: want, Guess: guess})
	}
	eval.Precision = float64(correct) / float64(len(learned))
	eval.Recall = float64(correct) / float64(len(truth))
	return eval
}

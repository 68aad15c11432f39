package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
	ErrReservedToken   = errors.New("token is reserved")
	ErrDuplicateToken  = errors.New("duplicate token in vocabulary")
)

// Vocabulary is an ordered set of distinct tokens.
type Vocabulary []Token

// NewVocabulary validates tokens and returns them as a Vocabulary,
// preserving order.
func NewVocabulary(tokens ...Token) (Vocabulary, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyVocabulary
	}
	seen := make(map[Token]bool, len(tokens))
	v := make(Vocabulary, 0, len(tokens))
	for _, t := range tokens {
		if t == Wildcard || t == "" {
			return nil, fmt.Errorf("%w: %q", ErrReservedToken, t)
		}
		if seen[t] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateToken, t)
		}
		seen[t] = true
		v = append(v, t)
	}
	return v, nil
}

func (v Vocabulary) Contains(t Token) bool {
	for _, w := range v {
		if w == t {
			return true
		}
	}
	return false
}

// Without returns the tokens of v not in exclude, in order.
func (v Vocabulary) Without(exclude ...Token) []Token {
	out := make([]Token, 0, len(v))
	for _, w := range v {
		skip := false
		for _, e := range exclude {
			if w == e {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, w)
		}
	}
	return out
}

// Regula is the full meaning of a vocabulary: exactly one rule per token.
type Regula map[Token]Commitment

// Rule returns the rule for t, or none if t is unknown.
func (r Regula) Rule(t Token) Commitment {
	c, ok := r[t]
	if !ok {
		return None()
	}
	return c.Normalized()
}

// Tokens returns the tokens of r in sorted order.
func (r Regula) Tokens() []Token {
	tokens := make([]Token, 0, len(r))
	for t := range r {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}

// Clone returns a copy of r that can be mutated independently.
func (r Regula) Clone() Regula {
	out := make(Regula, len(r))
	for t, c := range r {
		out[t] = c
	}
	return out
}

// Creates returns the create rules of r in token order.
func (r Regula) Creates() []Commitment {
	var out []Commitment
	for _, t := range r.Tokens() {
		if c := r[t]; c.Operation == OpCreate {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of rules with operation op.
func (r Regula) Count(op Operation) int {
	n := 0
	for _, c := range r {
		if c.Normalized().Operation == op {
			n++
		}
	}
	return n
}

// Validate checks every rule against its token.
func (r Regula) Validate() error {
	for _, t := range r.Tokens() {
		if err := r[t].Validate(t); err != nil {
			return fmt.Errorf("token %q: %w", t, err)
		}
	}
	return nil
}

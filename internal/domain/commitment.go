package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Token is a single vocabulary item, treated as a speech act.
type Token string

// Wildcard matches any antecedent or consequent in a policy key. It is
// reserved and can never be part of a vocabulary.
const Wildcard Token = "*"

type Operation string

const (
	OpNone    Operation = "none"
	OpCreate  Operation = "create"
	OpCancel  Operation = "cancel"
	OpRelease Operation = "release"
)

func ValidOperation(op string) bool {
	switch Operation(op) {
	case OpNone, OpCreate, OpCancel, OpRelease:
		return true
	}
	return false
}

var ErrInvalidCommitment = errors.New("invalid commitment")

// Commitment is the meaning of a token: an operation over an
// (antecedent, consequent) pair. A none commitment carries no pair.
// Commitments are values and compare with ==.
type Commitment struct {
	Operation  Operation `json:"operation"`
	Antecedent Token     `json:"antecedent,omitempty"`
	Consequent Token     `json:"consequent,omitempty"`
}

func None() Commitment {
	return Commitment{Operation: OpNone}
}

func Create(antecedent, consequent Token) Commitment {
	return Commitment{Operation: OpCreate, Antecedent: antecedent, Consequent: consequent}
}

func Cancel(antecedent, consequent Token) Commitment {
	return Commitment{Operation: OpCancel, Antecedent: antecedent, Consequent: consequent}
}

func Release(antecedent, consequent Token) Commitment {
	return Commitment{Operation: OpRelease, Antecedent: antecedent, Consequent: consequent}
}

// IsNone reports whether c has no effect. The zero Commitment is none.
func (c Commitment) IsNone() bool {
	return c.Operation == OpNone || c.Operation == ""
}

// Is reports whether c has operation op over the pair (antecedent, consequent).
func (c Commitment) Is(op Operation, antecedent, consequent Token) bool {
	return c.Operation == op && c.Antecedent == antecedent && c.Consequent == consequent
}

// SamePair reports whether c and o govern the same (antecedent, consequent) pair.
func (c Commitment) SamePair(o Commitment) bool {
	return c.Antecedent == o.Antecedent && c.Consequent == o.Consequent
}

// Normalized maps the zero Commitment to None so map keys stay canonical.
func (c Commitment) Normalized() Commitment {
	if c.IsNone() {
		return None()
	}
	return c
}

// Validate checks the structural invariants of a rule owned by token.
// An empty owner skips the self-reference check.
func (c Commitment) Validate(owner Token) error {
	if c.IsNone() {
		if c.Antecedent != "" || c.Consequent != "" {
			return fmt.Errorf("%w: none carries no pair", ErrInvalidCommitment)
		}
		return nil
	}
	if !ValidOperation(string(c.Operation)) {
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidCommitment, c.Operation)
	}
	if c.Antecedent == "" || c.Consequent == "" {
		return fmt.Errorf("%w: %s needs antecedent and consequent", ErrInvalidCommitment, c.Operation)
	}
	if c.Antecedent == c.Consequent && c.Antecedent != Wildcard {
		return fmt.Errorf("%w: antecedent equals consequent in %s", ErrInvalidCommitment, c)
	}
	if owner != "" && (c.Antecedent == owner || c.Consequent == owner) {
		return fmt.Errorf("%w: %s references its own token %q", ErrInvalidCommitment, c, owner)
	}
	return nil
}

func (c Commitment) String() string {
	if c.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s(%s, %s)", c.Operation, c.Antecedent, c.Consequent)
}

// ParseCommitment reads the String form back: "none" or "op(a, b)".
func ParseCommitment(s string) (Commitment, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == string(OpNone) {
		return None(), nil
	}
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return Commitment{}, fmt.Errorf("%w: %q", ErrInvalidCommitment, s)
	}
	op := Operation(strings.TrimSpace(s[:open]))
	if !ValidOperation(string(op)) || op == OpNone {
		return Commitment{}, fmt.Errorf("%w: unknown operation in %q", ErrInvalidCommitment, s)
	}
	args := strings.Split(s[open+1:len(s)-1], ",")
	if len(args) != 2 {
		return Commitment{}, fmt.Errorf("%w: %q needs two arguments", ErrInvalidCommitment, s)
	}
	c := Commitment{
		Operation:  op,
		Antecedent: Token(strings.TrimSpace(args[0])),
		Consequent: Token(strings.TrimSpace(args[1])),
	}
	if err := c.Validate(""); err != nil {
		return Commitment{}, err
	}
	return c, nil
}

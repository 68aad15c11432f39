package domain

import (
	"fmt"
	"strings"
)

// Utterance is one turn: an agent saying a token.
type Utterance struct {
	Agent Agent `json:"agent"`
	Token Token `json:"token"`
}

func (u Utterance) String() string {
	return fmt.Sprintf("(%d, %s)", int(u.Agent), u.Token)
}

// Interaction is the observable trace of a dialogue. Once produced it is
// read-only; consumers slice it positionally.
type Interaction []Utterance

// Contains reports whether agent uttered tok anywhere in in.
func (in Interaction) Contains(agent Agent, tok Token) bool {
	return in.Index(agent, tok) >= 0
}

// Index returns the first position of (agent, tok), or -1.
func (in Interaction) Index(agent Agent, tok Token) int {
	for i, u := range in {
		if u.Agent == agent && u.Token == tok {
			return i
		}
	}
	return -1
}

// Positions returns every position of (agent, tok).
func (in Interaction) Positions(agent Agent, tok Token) []int {
	var out []int
	for i, u := range in {
		if u.Agent == agent && u.Token == tok {
			out = append(out, i)
		}
	}
	return out
}

// From returns the suffix starting at i; out of range yields an empty trace.
func (in Interaction) From(i int) Interaction {
	if i < 0 {
		i = 0
	}
	if i >= len(in) {
		return Interaction{}
	}
	return in[i:]
}

// Prefix returns the first i utterances.
func (in Interaction) Prefix(i int) Interaction {
	if i <= 0 {
		return Interaction{}
	}
	if i > len(in) {
		i = len(in)
	}
	return in[:i]
}

// Append returns a new interaction with u added, leaving in untouched.
func (in Interaction) Append(u Utterance) Interaction {
	out := make(Interaction, len(in), len(in)+1)
	copy(out, in)
	return append(out, u)
}

// Tokens returns the distinct tokens of in in first-seen order.
func (in Interaction) Tokens() []Token {
	seen := make(map[Token]bool)
	var out []Token
	for _, u := range in {
		if !seen[u.Token] {
			seen[u.Token] = true
			out = append(out, u.Token)
		}
	}
	return out
}

// Validate checks agents and tokens.
func (in Interaction) Validate() error {
	for i, u := range in {
		if !u.Agent.Valid() {
			return fmt.Errorf("utterance %d: invalid agent %d", i, int(u.Agent))
		}
		if u.Token == "" || u.Token == Wildcard {
			return fmt.Errorf("utterance %d: %w: %q", i, ErrReservedToken, u.Token)
		}
	}
	return nil
}

func (in Interaction) String() string {
	parts := make([]string, len(in))
	for i, u := range in {
		parts[i] = u.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

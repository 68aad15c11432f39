package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Policy gates cancellations: a cancel key maps to the precondition token
// that must be uttered (and left unanswered) before cancelling is legitimate.
// Keys are cancel commitments whose antecedent and consequent may be Wildcard.
type Policy map[Commitment]Token

// PolicyKeys expands a cancel rule into the four keys that can govern it:
// exact, antecedent wildcarded, consequent wildcarded, fully wildcarded.
// Any other operation has no keys.
func PolicyKeys(c Commitment) []Commitment {
	if c.Operation != OpCancel {
		return nil
	}
	return []Commitment{
		Cancel(c.Antecedent, c.Consequent),
		Cancel(Wildcard, c.Consequent),
		Cancel(c.Antecedent, Wildcard),
		Cancel(Wildcard, Wildcard),
	}
}

// Preconditions collects the precondition tokens governing c.
func (p Policy) Preconditions(c Commitment) []Token {
	var out []Token
	for _, key := range PolicyKeys(c) {
		if tok, ok := p[key]; ok {
			out = append(out, tok)
		}
	}
	return out
}

// PolicyEntry is the serialized form of one policy key.
type PolicyEntry struct {
	Rule         Commitment `json:"rule"`
	Precondition Token      `json:"precondition"`
}

// Entries returns the policy as a list sorted by key.
func (p Policy) Entries() []PolicyEntry {
	out := make([]PolicyEntry, 0, len(p))
	for k, v := range p {
		out = append(out, PolicyEntry{Rule: k, Precondition: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rule.String() < out[j].Rule.String() })
	return out
}

// PolicyFromEntries builds a policy, rejecting non-cancel keys and duplicates.
func PolicyFromEntries(entries []PolicyEntry) (Policy, error) {
	p := make(Policy, len(entries))
	for _, e := range entries {
		if e.Rule.Operation != OpCancel {
			return nil, fmt.Errorf("%w: policy key %s is not a cancel", ErrInvalidCommitment, e.Rule)
		}
		if e.Precondition == "" || e.Precondition == Wildcard {
			return nil, fmt.Errorf("%w: policy key %s has no precondition", ErrInvalidCommitment, e.Rule)
		}
		if _, dup := p[e.Rule]; dup {
			return nil, fmt.Errorf("%w: duplicate policy key %s", ErrInvalidCommitment, e.Rule)
		}
		p[e.Rule] = e.Precondition
	}
	return p, nil
}

func (p Policy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Entries())
}

func (p *Policy) UnmarshalJSON(data []byte) error {
	var entries []PolicyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	out, err := PolicyFromEntries(entries)
	if err != nil {
		return err
	}
	*p = out
	return nil
}

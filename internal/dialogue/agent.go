package dialogue

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/semantics"
	"go.uber.org/zap"
)

// Agent plays one side of a dialogue using its own copy of a regula. It is
// not safe for concurrent use; each Agent runs in a single goroutine.
type Agent struct {
	id          domain.Agent
	regula      domain.Regula
	rng         *rand.Rand
	logger      *zap.Logger
	interaction domain.Interaction
}

func NewAgent(id domain.Agent, regula domain.Regula, rng *rand.Rand, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		id:     id,
		regula: regula.Clone(),
		rng:    rng,
		logger: logger.With(zap.Stringer("agent", id)),
	}
}

func (a *Agent) ID() domain.Agent {
	return a.id
}

// Regula returns the agent's regula, including tokens it learned to treat
// as none while talking.
func (a *Agent) Regula() domain.Regula {
	return a.regula
}

// Interaction returns what the agent has seen of the current dialogue.
func (a *Agent) Interaction() domain.Interaction {
	return a.interaction
}

// Interact runs the agent through pattern over conn. It returns true when
// every turn of the pattern was played and false when either side gave up.
// Errors are reserved for cancellation and protocol violations.
func (a *Agent) Interact(ctx context.Context, conn *Conn, pattern []domain.Agent) (bool, error) {
	a.interaction = make(domain.Interaction, 0, len(pattern))
	bound := len(pattern)

	for _, turn := range pattern {
		if turn == a.id {
			tok, ok := a.choose(bound)
			if !ok {
				a.logger.Debug("no utterance available", zap.Stringer("interaction", a.interaction))
				return false, conn.Send(ctx, Message{Kind: KindFailed})
			}
			if err := conn.Send(ctx, Message{Kind: KindToken, Token: tok}); err != nil {
				return false, err
			}
			a.interaction = append(a.interaction, domain.Utterance{Agent: a.id, Token: tok})

			reply, err := conn.Recv(ctx)
			if err != nil {
				return false, err
			}
			if reply.Kind != KindOK {
				return false, fmt.Errorf("%w: expected ok, got %s", ErrProtocol, reply)
			}
			continue
		}

		m, err := conn.Recv(ctx)
		if err != nil {
			return false, err
		}
		switch m.Kind {
		case KindFailed:
			return false, nil
		case KindToken:
		default:
			return false, fmt.Errorf("%w: expected a token, got %s", ErrProtocol, m)
		}
		a.interaction = append(a.interaction, domain.Utterance{Agent: a.id.Other(), Token: m.Token})
		if _, known := a.regula[m.Token]; !known {
			a.regula[m.Token] = domain.None()
		}
		if err := conn.Send(ctx, Message{Kind: KindOK}); err != nil {
			return false, err
		}
	}
	return true, nil
}

// choose picks the next token. Agent one only says tokens whose resulting
// obligations it can still discharge in its remaining turns. Agent zero
// says anything, preferring antecedents of agent one's active commitments.
func (a *Agent) choose(bound int) (domain.Token, bool) {
	remaining := bound - len(a.interaction) - 1
	mine := remaining / 2
	theirs := remaining / 2
	if a.id == domain.AgentZero {
		theirs++
	}

	tokens := a.regula.Tokens()
	var possible []domain.Token
	if a.id == domain.AgentZero {
		possible = tokens
	} else {
		for _, v := range tokens {
			next := a.interaction.Append(domain.Utterance{Agent: a.id, Token: v})
			owed := consequents(semantics.DetachedBy(a.regula, a.id, next))
			pending := consequents(semantics.ActiveBy(a.regula, a.id, next))
			if owed+min(theirs, pending) <= mine {
				possible = append(possible, v)
			}
		}
	}
	if len(possible) == 0 {
		return "", false
	}

	var better []domain.Token
	if a.id == domain.AgentZero {
		active := semantics.ActiveBy(a.regula, domain.AgentOne, a.interaction)
		for _, v := range possible {
			for _, c := range active {
				if c.Antecedent == v {
					better = append(better, v)
					break
				}
			}
		}
	}
	if len(better) > 0 {
		return better[a.rng.IntN(len(better))], true
	}
	return possible[a.rng.IntN(len(possible))], true
}

// consequents counts the distinct consequents of cs.
func consequents(cs []domain.Commitment) int {
	seen := make(map[domain.Token]bool, len(cs))
	for _, c := range cs {
		seen[c.Consequent] = true
	}
	return len(seen)
}

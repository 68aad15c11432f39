package domain

import "fmt"

// Agent identifies one of the two dialogue participants.
type Agent int

const (
	AgentZero Agent = 0
	AgentOne  Agent = 1
)

// Other returns the counterpart of a.
func (a Agent) Other() Agent {
	return 1 - a
}

func (a Agent) Valid() bool {
	return a == AgentZero || a == AgentOne
}

func (a Agent) String() string {
	return fmt.Sprintf("agent%d", int(a))
}

// GuiltySet holds the agents that uttered at least one cancel token in an
// interaction, whether or not the cancellation was legitimate.
type GuiltySet map[Agent]bool

// BothGuilty treats both agents as cancellers.
func BothGuilty() GuiltySet {
	return GuiltySet{AgentZero: true, AgentOne: true}
}

func (g GuiltySet) Has(a Agent) bool {
	return g[a]
}

// Agents returns the members in ascending order.
func (g GuiltySet) Agents() []Agent {
	var out []Agent
	for _, a := range []Agent{AgentZero, AgentOne} {
		if g[a] {
			out = append(out, a)
		}
	}
	return out
}

// GuiltyFrom builds a set from a list of agents.
func GuiltyFrom(agents ...Agent) GuiltySet {
	g := make(GuiltySet, len(agents))
	for _, a := range agents {
		g[a] = true
	}
	return g
}

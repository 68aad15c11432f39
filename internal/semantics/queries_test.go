package semantics

import (
	"testing"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/stretchr/testify/assert"
)

func u(agent int, tok string) domain.Utterance {
	return domain.Utterance{Agent: domain.Agent(agent), Token: domain.Token(tok)}
}

func testRegula() domain.Regula {
	return domain.Regula{
		"a": domain.Create("b", "c"),
		"b": domain.None(),
		"c": domain.None(),
		"d": domain.None(),
		"x": domain.Cancel("b", "c"),
		"y": domain.Release("b", "c"),
	}
}

func TestIsActiveBy(t *testing.T) {
	r := testRegula()

	in := domain.Interaction{u(0, "a")}
	assert.True(t, IsActiveBy(r, "a", domain.AgentZero, in))
	assert.False(t, IsActiveBy(r, "a", domain.AgentOne, in))

	in = in.Append(u(1, "b"))
	assert.False(t, IsActiveBy(r, "a", domain.AgentZero, in))
	assert.False(t, IsActiveBy(r, "b", domain.AgentZero, in), "none rules are never active")
}

func TestIsDetachedBy_Basic(t *testing.T) {
	r := testRegula()

	in := domain.Interaction{u(0, "a"), u(1, "b")}
	assert.True(t, IsDetachedBy(r, "a", domain.AgentZero, in))
	assert.False(t, IsDetachedBy(r, "a", domain.AgentOne, in))

	in = in.Append(u(0, "c"))
	assert.False(t, IsDetachedBy(r, "a", domain.AgentZero, in), "discharged by the consequent")
}

func TestIsDetachedBy_AntecedentFromDebtorDoesNotDetach(t *testing.T) {
	r := testRegula()
	in := domain.Interaction{u(0, "a"), u(0, "b")}
	assert.False(t, IsDetachedBy(r, "a", domain.AgentZero, in))
}

func TestIsDetachedBy_ExistentialOverOccurrences(t *testing.T) {
	r := testRegula()
	// The first utterance of a is discharged; the second is left hanging.
	in := domain.Interaction{
		u(0, "a"), u(1, "b"), u(0, "c"),
		u(1, "d"), u(0, "a"), u(1, "b"),
	}

	assert.True(t, IsDetachedBy(r, "a", domain.AgentZero, in))
	assert.True(t, IsOpenBy("a", r["a"], domain.AgentZero, in))
	// The first-occurrence chase still reports a discharge.
	assert.True(t, IsDischargedBy("a", r["a"], domain.AgentZero, domain.AgentOne, in))
}

func TestIsDetachedBy_CancelAndRelease(t *testing.T) {
	r := testRegula()

	cancelled := domain.Interaction{u(0, "a"), u(1, "b"), u(0, "x")}
	assert.False(t, IsDetachedBy(r, "a", domain.AgentZero, cancelled))
	assert.True(t, IsOpenBy("a", r["a"], domain.AgentZero, cancelled), "open ignores cancels")
	assert.True(t, Cancelled(r, cancelled, domain.AgentZero, r["a"]))

	released := domain.Interaction{u(0, "a"), u(1, "b"), u(1, "y")}
	assert.False(t, IsDetachedBy(r, "a", domain.AgentZero, released))
	assert.True(t, Released(r, released, domain.AgentOne, r["a"]))

	wrongSide := domain.Interaction{u(0, "a"), u(1, "b"), u(1, "x")}
	assert.True(t, IsDetachedBy(r, "a", domain.AgentZero, wrongSide), "only the debtor can cancel")

	cancelBefore := domain.Interaction{u(0, "x"), u(0, "a"), u(1, "b")}
	assert.True(t, IsDetachedBy(r, "a", domain.AgentZero, cancelBefore), "cancels before the creation do not count")
}

func TestUnknownTokens(t *testing.T) {
	r := testRegula()
	in := domain.Interaction{u(0, "zz"), u(1, "b")}

	assert.False(t, IsDetachedBy(r, "zz", domain.AgentZero, in))
	assert.False(t, IsActiveBy(r, "zz", domain.AgentZero, in))
	assert.Empty(t, DetachedBy(r, domain.AgentZero, in))
}

func TestIsDischargedBy_FirstOccurrence(t *testing.T) {
	r := testRegula()

	in := domain.Interaction{u(0, "a"), u(1, "b"), u(0, "c")}
	assert.True(t, IsDischargedBy("a", r["a"], domain.AgentZero, domain.AgentOne, in))
	assert.False(t, IsDischargedBy("a", r["a"], domain.AgentOne, domain.AgentZero, in))

	// The consequent must follow the antecedent.
	early := domain.Interaction{u(0, "a"), u(0, "c"), u(1, "b")}
	assert.False(t, IsDischargedBy("a", r["a"], domain.AgentZero, domain.AgentOne, early))

	assert.Equal(t, []domain.Commitment{domain.Create("b", "c")}, Discharged(r, in))
	assert.Empty(t, Discharged(r, early))
}

func TestDetachedByAndSettled(t *testing.T) {
	r := testRegula()
	in := domain.Interaction{u(0, "a"), u(1, "b")}

	assert.Equal(t, []domain.Commitment{domain.Create("b", "c")}, DetachedBy(r, domain.AgentZero, in))
	assert.Empty(t, DetachedBy(r, domain.AgentOne, in))
	assert.False(t, Settled(r, in))
	assert.True(t, Settled(r, in.Append(u(0, "c"))))
}

func TestActiveBy(t *testing.T) {
	r := testRegula()
	in := domain.Interaction{u(1, "a")}
	assert.Equal(t, []domain.Commitment{domain.Create("b", "c")}, ActiveBy(r, domain.AgentOne, in))
	assert.Empty(t, ActiveBy(r, domain.AgentZero, in))
}

func TestCancellers(t *testing.T) {
	r := testRegula()
	in := domain.Interaction{u(0, "a"), u(1, "x"), u(0, "d")}
	g := Cancellers(r, in)
	assert.True(t, g.Has(domain.AgentOne))
	assert.False(t, g.Has(domain.AgentZero))
}

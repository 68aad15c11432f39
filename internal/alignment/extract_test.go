package alignment

import (
	"testing"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_TieYieldsNone(t *testing.T) {
	a := FromRows([]domain.HypothesisRow{
		row("a", domain.Create("b", "c"), 50),
		row("a", domain.Create("b", "d"), 45),
		row("a", domain.Create("c", "d"), 1),
	})

	assert.True(t, Extract(a, 10).Rule("a").IsNone())
	assert.Equal(t, domain.Create("b", "c"), Extract(a, 3).Rule("a"))
	assert.True(t, Extract(a, 5).Rule("a").IsNone(), "a gap equal to the margin is a tie")
}

func TestExtract_ExactTieWithZeroMargin(t *testing.T) {
	a := New()
	a.Add("a", domain.Create("b", "c"), 5)
	a.Add("a", domain.Create("b", "d"), 5)
	a.Add("b", domain.Create("a", "c"), 5)
	a.Add("b", domain.Create("a", "d"), 4)

	got := Extract(a, 0)
	assert.True(t, got.Rule("a").IsNone(), "got %s", got.Rule("a"))
	assert.Equal(t, domain.Create("a", "c"), got.Rule("b"))
}

func TestExtract_Degenerate(t *testing.T) {
	a := New()
	a.Register("a")
	a.Add("b", domain.Create("a", "c"), -4)
	a.Add("c", domain.Release("a", "b"), 0)

	got := Extract(a, 10)
	require.Len(t, got, 3)
	for _, tok := range []domain.Token{"a", "b", "c"} {
		assert.True(t, got.Rule(tok).IsNone(), "token %s", tok)
	}
}

func truthABCD() domain.Regula {
	return domain.Regula{
		"a": domain.Create("b", "c"),
		"b": domain.None(),
		"c": domain.None(),
		"d": domain.None(),
	}
}

func TestEvaluate(t *testing.T) {
	a := New()
	a.Add("a", domain.Create("b", "c"), 40)
	a.Add("b", domain.Create("c", "a"), 10)
	a.Register("c")

	eval := Evaluate(truthABCD(), a, 30)
	assert.InDelta(t, 2.0/3.0, eval.Precision, 1e-9)
	assert.InDelta(t, 0.5, eval.Recall, 1e-9)
	assert.False(t, eval.Converged())
	require.Len(t, eval.Mismatches, 1)
	assert.Equal(t, domain.Mismatch{Token: "b", Truth: domain.None(), Guess: domain.Create("c", "a")}, eval.Mismatches[0])
	assert.Len(t, eval.Learned, 3)
}

func TestEvaluate_EmptyAlignment(t *testing.T) {
	eval := Evaluate(truthABCD(), New(), 30)
	assert.Zero(t, eval.Precision)
	assert.Zero(t, eval.Recall)
	assert.Empty(t, eval.Mismatches)
}

func TestCompare_Perfect(t *testing.T) {
	eval := Compare(truthABCD(), truthABCD())
	assert.True(t, eval.Converged())
	assert.Empty(t, eval.Mismatches)
}

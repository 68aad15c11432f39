package alignment

import (
	"testing"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/Harshitk-cp/regula/internal/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func u(agent int, tok string) domain.Utterance {
	return domain.Utterance{Agent: domain.Agent(agent), Token: domain.Token(tok)}
}

func testParams() Params {
	return Params{
		Create:       2,
		Cancel:       2,
		Release:      2,
		PunishCreate: 200,
		NoCancel:     1,
		Policy:       2,
		PunishOpen:   0.5,
		Prune:        1000,
		Extract:      30,
		Confidence:   0.5,
	}
}

func score(t *testing.T, a *Alignment, tok string, c domain.Commitment) float64 {
	t.Helper()
	s, ok := a.Score(domain.Token(tok), c)
	require.True(t, ok, "%s has no hypothesis %s", tok, c)
	return s
}

func TestLearnBase_CreateHypotheses(t *testing.T) {
	l := NewLearner(testParams(), zap.NewNop())
	in := domain.Interaction{u(0, "a"), u(1, "b"), u(0, "c"), u(1, "d"), u(0, "c")}

	require.NoError(t, l.Learn(ModeBase, in, nil, nil))
	a := l.Alignment()

	assert.Equal(t, []domain.Token{"a", "b", "c", "d"}, a.Tokens())
	// b then c twice after a; d then c once
	assert.Equal(t, 4.0, score(t, a, "a", domain.Create("b", "c")))
	assert.Equal(t, 2.0, score(t, a, "a", domain.Create("d", "c")))
	assert.Len(t, a.Hypotheses("a", domain.OpCreate), 2)
	assert.Equal(t, 2.0, score(t, a, "b", domain.Create("c", "d")))
	assert.Len(t, a.Hypotheses("b", domain.OpCreate), 1)
	assert.Empty(t, a.Hypotheses("c", domain.OpCreate))
	assert.Empty(t, a.Hypotheses("d", domain.OpCreate))
}

func TestLearnBase_SkipsSelfReference(t *testing.T) {
	l := NewLearner(testParams(), zap.NewNop())
	in := domain.Interaction{u(0, "a"), u(1, "a"), u(0, "b"), u(1, "c"), u(0, "b")}

	l.LearnBase(in)
	a := l.Alignment()
	assert.False(t, a.Has("a", domain.Create("a", "b")))
	assert.True(t, a.Has("a", domain.Create("c", "b")))
	assert.False(t, a.Has("b", domain.Create("c", "b")))
}

func TestLearnRelease_AttributesCancelAndRelease(t *testing.T) {
	a := New()
	a.Add("a", domain.Create("b", "c"), 10)
	l := NewLearnerFrom(a, testParams(), zap.NewNop())

	in := domain.Interaction{u(0, "a"), u(1, "b"), u(0, "x"), u(1, "y")}
	l.LearnRelease(in, nil)

	// create(b,x) joins create(b,c) before attribution, so the confidence
	// of create(b,c) is 10/12.
	want := 2 * (10.0 / 12.0) * (10.0 / 12.0)
	assert.InDelta(t, want, score(t, a, "x", domain.Cancel("b", "c")), 1e-9)
	assert.InDelta(t, want, score(t, a, "y", domain.Release("b", "c")), 1e-9)
	assert.Equal(t, 10.0, score(t, a, "a", domain.Create("b", "c")))
	assert.Equal(t, 2.0, score(t, a, "a", domain.Create("b", "x")))
	assert.False(t, a.Has("b", domain.Cancel("b", "c")))
}

func TestLearnRelease_PunishesUnexplainedDetachment(t *testing.T) {
	a := New()
	a.Add("a", domain.Create("b", "c"), 10)
	l := NewLearnerFrom(a, testParams(), zap.NewNop())

	l.LearnRelease(domain.Interaction{u(0, "a"), u(1, "b")}, nil)

	assert.False(t, a.Has("a", domain.Create("b", "c")))
	assert.True(t, l.Extract().Rule("a").IsNone())
}

func TestLearnPunish_InnocentDebtorGetsNoCancel(t *testing.T) {
	a := New()
	a.Add("a", domain.Create("b", "c"), 10)
	a.Add("x", domain.Cancel("b", "c"), 5)
	l := NewLearnerFrom(a, testParams(), zap.NewNop())

	in := domain.Interaction{u(0, "a"), u(1, "b"), u(0, "x"), u(1, "d")}
	require.NoError(t, l.Learn(ModePunish, in, nil, domain.GuiltySet{}))

	// no-cancel reinforcement costs x one unit and x is not rewarded
	assert.InDelta(t, 4.0, score(t, a, "x", domain.Cancel("b", "c")), 1e-9)
	assert.True(t, a.Has("d", domain.Release("b", "c")))
	// the open create is excused by x's cancel
	assert.Equal(t, 10.0, score(t, a, "a", domain.Create("b", "c")))
}

func TestLearnPunish_GuiltyDebtorRewarded(t *testing.T) {
	a := New()
	a.Add("a", domain.Create("b", "c"), 10)
	l := NewLearnerFrom(a, testParams(), zap.NewNop())

	in := domain.Interaction{u(0, "a"), u(1, "b"), u(0, "x"), u(1, "d")}
	l.LearnPunish(in, nil, domain.GuiltyFrom(domain.AgentZero))

	assert.True(t, a.Has("x", domain.Cancel("b", "c")))
	assert.True(t, a.Has("d", domain.Release("b", "c")))
}

func TestLearnPunish_OpenCreateWithoutExcuse(t *testing.T) {
	a := New()
	a.Add("a", domain.Create("b", "c"), 10)
	params := testParams()
	params.Confidence = 2 // unreachable: nothing excuses
	l := NewLearnerFrom(a, params, zap.NewNop())

	in := domain.Interaction{u(0, "a"), u(1, "b"), u(0, "x"), u(1, "d")}
	l.LearnPunish(in, nil, domain.GuiltySet{})

	assert.InDelta(t, 10-params.PunishOpen, score(t, a, "a", domain.Create("b", "c")), 1e-9)
}

func TestPolicyPass(t *testing.T) {
	policy := domain.Policy{domain.Cancel("b", domain.Wildcard): "p"}

	blocked := New()
	blocked.Add("x", domain.Cancel("b", "c"), 5)
	NewLearnerFrom(blocked, testParams(), zap.NewNop()).
		LearnRelease(domain.Interaction{u(1, "p"), u(0, "a"), u(1, "b"), u(0, "x")}, policy)
	assert.InDelta(t, 3.0, score(t, blocked, "x", domain.Cancel("b", "c")), 1e-9)

	answered := New()
	answered.Add("x", domain.Cancel("b", "c"), 5)
	NewLearnerFrom(answered, testParams(), zap.NewNop()).
		LearnRelease(domain.Interaction{u(1, "p"), u(0, "p"), u(1, "b"), u(0, "x")}, policy)
	assert.InDelta(t, 5.0, score(t, answered, "x", domain.Cancel("b", "c")), 1e-9)
}

func TestLearn_UnknownMode(t *testing.T) {
	l := NewLearner(testParams(), nil)
	err := l.Learn(Mode("greedy"), domain.Interaction{u(0, "a")}, nil, nil)
	assert.Error(t, err)
	assert.True(t, ValidMode("punish"))
	assert.False(t, ValidMode("greedy"))
}

func TestLearner_ConvergesOnSingleCreate(t *testing.T) {
	truth := truthABCD()
	vocab, err := domain.NewVocabulary("a", "b", "c", "d")
	require.NoError(t, err)

	params := Params{
		Create: 2, Cancel: 2, Release: 2, PunishCreate: 200, NoCancel: 200,
		Policy: 2, PunishOpen: 0.2, Prune: 10, Extract: 30, Confidence: 0.5,
	}
	l := NewLearner(params, zap.NewNop())
	g := generator.NewSeeded(2024, 1, zap.NewNop())

	converged := -1
	for i := 0; i < 5000; i++ {
		res, err := g.Interaction(truth, vocab, 4, domain.Policy{}, 1)
		require.NoError(t, err)
		l.LearnRelease(res.Interaction, domain.Policy{})

		if Evaluate(truth, l.Alignment(), params.Extract).Converged() {
			converged = i
			break
		}
	}

	require.GreaterOrEqual(t, converged, 0, "learner never matched the truth")
	learned := l.Extract()
	assert.Equal(t, domain.Create("b", "c"), learned.Rule("a"))
	for _, tok := range []domain.Token{"b", "c", "d"} {
		assert.True(t, learned.Rule(tok).IsNone(), "token %s learned %s", tok, learned.Rule(tok))
	}
}

// After 50 length-4 interactions most, not all, seeds have matched the
// truth, so this checks a rate across seeds.
func TestLearner_ConvergenceRateAtFiftyInteractions(t *testing.T) {
	truth := truthABCD()
	vocab, err := domain.NewVocabulary("a", "b", "c", "d")
	require.NoError(t, err)

	params := Params{
		Create: 2, Cancel: 2, Release: 2, PunishCreate: 200, NoCancel: 200,
		Policy: 2, PunishOpen: 0.2, Prune: 10, Extract: 30, Confidence: 0.5,
	}

	const seeds = 40
	converged := 0
	for s := uint64(1); s <= seeds; s++ {
		l := NewLearner(params, zap.NewNop())
		g := generator.NewSeeded(s, 1, zap.NewNop())
		for i := 0; i < 50; i++ {
			res, err := g.Interaction(truth, vocab, 4, domain.Policy{}, 1)
			require.NoError(t, err)
			l.LearnRelease(res.Interaction, domain.Policy{})
		}

		eval := Evaluate(truth, l.Alignment(), params.Extract)
		if eval.Converged() {
			converged++
			assert.Equal(t, domain.Create("b", "c"), eval.Learned.Rule("a"))
		}
	}

	assert.GreaterOrEqual(t, float64(converged)/seeds, 0.5, "converged %d of %d", converged, seeds)
}

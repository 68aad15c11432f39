package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitmentString(t *testing.T) {
	assert.Equal(t, "none", None().String())
	assert.Equal(t, "none", Commitment{}.String())
	assert.Equal(t, "create(b, c)", Create("b", "c").String())
	assert.Equal(t, "cancel(*, c)", Cancel(Wildcard, "c").String())
}

func TestParseCommitment(t *testing.T) {
	c, err := ParseCommitment(" release( b ,c ) ")
	require.NoError(t, err)
	assert.Equal(t, Release("b", "c"), c)

	c, err = ParseCommitment("none")
	require.NoError(t, err)
	assert.True(t, c.IsNone())

	for _, bad := range []string{"create(b)", "foo(a, b)", "create(a, a)", "create b c"} {
		_, err := ParseCommitment(bad)
		assert.ErrorIs(t, err, ErrInvalidCommitment, bad)
	}
}

func TestCommitmentValidate(t *testing.T) {
	assert.NoError(t, Create("b", "c").Validate("a"))
	assert.ErrorIs(t, Create("a", "c").Validate("a"), ErrInvalidCommitment)
	assert.ErrorIs(t, Create("c", "c").Validate("a"), ErrInvalidCommitment)
	assert.NoError(t, Cancel(Wildcard, Wildcard).Validate(""))
}

func TestCommitmentZeroValueIsCanonicalNone(t *testing.T) {
	r := Regula{"a": {}}
	assert.Equal(t, None(), r.Rule("a"))
	assert.Equal(t, None(), r.Rule("missing"))
}

func TestNewVocabulary(t *testing.T) {
	v, err := NewVocabulary("a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, []Token{"a", "c"}, v.Without("b"))

	_, err = NewVocabulary()
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
	_, err = NewVocabulary("a", Wildcard)
	assert.ErrorIs(t, err, ErrReservedToken)
	_, err = NewVocabulary("a", "a")
	assert.ErrorIs(t, err, ErrDuplicateToken)
}

func TestPolicyKeys(t *testing.T) {
	keys := PolicyKeys(Cancel("b", "c"))
	assert.ElementsMatch(t, []Commitment{
		Cancel("b", "c"),
		Cancel(Wildcard, "c"),
		Cancel("b", Wildcard),
		Cancel(Wildcard, Wildcard),
	}, keys)
	assert.Nil(t, PolicyKeys(Create("b", "c")))
}

func TestPolicyJSON(t *testing.T) {
	p := Policy{Cancel("b", Wildcard): "p", Cancel("d", "e"): "q"}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back Policy
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)

	err = json.Unmarshal([]byte(`[{"rule":{"operation":"create","antecedent":"b","consequent":"c"},"precondition":"p"}]`), &back)
	assert.ErrorIs(t, err, ErrInvalidCommitment)
}

func TestRegulaValidate(t *testing.T) {
	good := Regula{"a": Create("b", "c"), "b": None(), "c": None()}
	assert.NoError(t, good.Validate())
	assert.Equal(t, 1, good.Count(OpCreate))

	bad := Regula{"a": Create("a", "c")}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidCommitment)
}

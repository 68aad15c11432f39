// Package generator builds random regulas, policies and interactions for
// experiments. Every rejection-sampling loop is bounded by MaxAttempts and
// reports ErrUngenerable when the bound is reached.
package generator

import (
	"errors"
	"math/rand/v2"

	"github.com/Harshitk-cp/regula/internal/domain"
	"go.uber.org/zap"
)

const DefaultMaxAttempts = 100000

var ErrUngenerable = errors.New("ungenerable configuration")

// Generator draws from a single random source. It is not safe for
// concurrent use; give each experiment repetition its own Generator.
type Generator struct {
	rng    *rand.Rand
	logger *zap.Logger

	MaxAttempts int
}

func New(rng *rand.Rand, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		rng:         rng,
		logger:      logger,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// NewSeeded is New with a PCG source seeded from seed and stream.
func NewSeeded(seed, stream uint64, logger *zap.Logger) *Generator {
	return New(rand.New(rand.NewPCG(seed, stream)), logger)
}

func (g *Generator) maxAttempts() int {
	if g.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return g.MaxAttempts
}

func (g *Generator) pick(tokens []domain.Token) domain.Token {
	return tokens[g.rng.IntN(len(tokens))]
}

// sample returns k distinct elements of tokens in random order.
func (g *Generator) sample(tokens []domain.Token, k int) []domain.Token {
	if k > len(tokens) {
		k = len(tokens)
	}
	perm := g.rng.Perm(len(tokens))
	out := make([]domain.Token, k)
	for i := 0; i < k; i++ {
		out[i] = tokens[perm[i]]
	}
	return out
}

// Letters returns a random vocabulary of size distinct lowercase letters.
func (g *Generator) Letters(size int) (domain.Vocabulary, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	if size < 1 || size > len(alphabet) {
		return nil, errors.New("vocabulary size must be between 1 and 26")
	}
	tokens := make([]domain.Token, 0, size)
	for _, i := range g.rng.Perm(len(alphabet))[:size] {
		tokens = append(tokens, domain.Token(alphabet[i:i+1]))
	}
	return domain.NewVocabulary(tokens...)
}

// Bound returns one of bounds at random.
func (g *Generator) Bound(bounds ...int) int {
	return bounds[g.rng.IntN(len(bounds))]
}

// Fork returns an independent source seeded from g, for collaborators that
// run in their own goroutine.
func (g *Generator) Fork() *rand.Rand {
	return rand.New(rand.NewPCG(g.rng.Uint64(), g.rng.Uint64()))
}

package dialogue

import (
	"context"

	"github.com/Harshitk-cp/regula/internal/domain"
	"golang.org/x/sync/errgroup"
)

type Result struct {
	Interaction domain.Interaction `json:"interaction"`
	Completed   bool               `json:"completed"`
}

// Run lets first and second talk over a fresh pipe following pattern and
// returns the interaction as first saw it.
func Run(ctx context.Context, first, second *Agent, pattern []domain.Agent) (*Result, error) {
	left, right := Pipe()

	var done [2]bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := first.Interact(gctx, left, pattern)
		done[0] = ok
		return err
	})
	g.Go(func() error {
		ok, err := second.Interact(gctx, right, pattern)
		done[1] = ok
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Interaction: first.Interaction(),
		Completed:   done[0] && done[1],
	}, nil
}

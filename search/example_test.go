package search_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/hamgraph/degree"
	"github.com/katalvlaran/hamgraph/gen"
	"github.com/katalvlaran/hamgraph/search"
	"github.com/katalvlaran/hamgraph/strategy"
	"github.com/katalvlaran/hamgraph/subtour"
	"github.com/katalvlaran/hamgraph/trail"
)

// ExampleSolver_Solve searches a closed king's tour on a 3×3 board.
func ExampleSolver_Solve() {
	in, _ := gen.KingTour(3)
	g, _ := in.Domain(trail.New())
	filter, _ := degree.New(g)
	_, _ = subtour.New(g)

	st, _ := strategy.New(g, strategy.WithMode(strategy.MinEnvelopeDegree))
	s, _ := search.New(g, st, search.WithPropagators(filter))

	res, err := s.Solve(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(res.Status, len(res.Tour)-1, res.Tour[0] == res.Tour[9])
	// Output: solved 9 true
}

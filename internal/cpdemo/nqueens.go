package cpdemo

import (
	"fmt"

	"github.com/gophercp/cpcore/pkg/cpsolver"
)

// NQueens builds one IntVar per row, ranging over columns 0..n-1, and
// posts the column and diagonal non-attack constraints between every
// pair of rows.
func NQueens(s *cpsolver.Solver, n int) []*cpsolver.IntVar {
	queens := make([]*cpsolver.IntVar, n)
	for i := range queens {
		queens[i] = cpsolver.NewIntVar(s, 0, n-1, fmt.Sprintf("Q%d", i))
	}
	AllDifferent(s, queens)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s.AddConstraint(&notEqualOffset{a: queens[i], b: queens[j], offset: j - i})
		}
	}
	return queens
}

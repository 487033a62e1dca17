package cpsolve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gophercp/cpcore/internal/cpdemo"
	"github.com/gophercp/cpcore/pkg/cpsolver"
	"github.com/gophercp/cpcore/pkg/cpsolver/trace"
)

// NewNQueensCommand solves the n-queens puzzle for a configurable board
// size, the way the teacher's cmd/sudoku solves its fixed puzzle: build
// the model, search for a first solution, print it.
func NewNQueensCommand() *cobra.Command {
	var n int
	var traceSearch bool
	var trailBlockSize int
	var compressTrail bool

	cmd := &cobra.Command{
		Use:   "nqueens",
		Short: "Solves the n-queens puzzle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return solveNQueens(n, traceSearch, trailBlockSize, compressTrail)
		},
	}
	cmd.Flags().IntVar(&n, "n", 8, "board size")
	cmd.Flags().BoolVar(&traceSearch, "trace", false, "print every decision and failure")
	cmd.Flags().IntVar(&trailBlockSize, "trail-block-size", cpsolver.DefaultTrailBlockSize, "reversible trail block size")
	cmd.Flags().BoolVar(&compressTrail, "compress-trail", false, "zlib-compress trail blocks once they go cold")
	return cmd
}

func solveNQueens(n int, traceSearch bool, trailBlockSize int, compressTrail bool) error {
	mode := cpsolver.NoCompression
	if compressTrail {
		mode = cpsolver.CompressWithZlib
	}
	s := cpsolver.NewSolver("nqueens",
		cpsolver.WithTrailBlockSize(trailBlockSize),
		cpsolver.WithCompression(mode),
	)
	queens := cpdemo.NQueens(s, n)
	db := cpdemo.AssignSmallest(queens)

	var monitors []cpsolver.SearchMonitor
	if traceSearch {
		monitors = append(monitors, trace.Writer{W: os.Stdout, Prefix: "######## "})
	}

	// NewSearch/NextSolution rather than Solve: Solve's EndSearch unbinds
	// every variable before returning, and the values are printed below.
	s.NewSearch(db, monitors...)
	defer s.EndSearch()
	if !s.NextSolution() {
		fmt.Println("no solution found")
		return nil
	}
	for _, q := range queens {
		fmt.Printf("%s = %d\n", s.GetName(q), q.Value())
	}
	return nil
}

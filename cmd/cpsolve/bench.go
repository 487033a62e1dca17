package cpsolve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gophercp/cpcore/internal/cpdemo"
	"github.com/gophercp/cpcore/pkg/cpsolver"
)

// NewBenchCommand runs n-queens across a range of board sizes and reports
// branch/fail counts, a quick way to eyeball the search loop's behavior
// without wiring up a full profiler (profiling output formatting is an
// external-collaborator concern, spec.md §1).
func NewBenchCommand() *cobra.Command {
	var minN, maxN int
	var trailBlockSize int
	var compressTrail bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmarks n-queens across a range of board sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := cpsolver.NoCompression
			if compressTrail {
				mode = cpsolver.CompressWithZlib
			}
			for n := minN; n <= maxN; n++ {
				s := cpsolver.NewSolver(fmt.Sprintf("bench-%d", n),
					cpsolver.WithTrailBlockSize(trailBlockSize),
					cpsolver.WithCompression(mode),
				)
				queens := cpdemo.NQueens(s, n)
				found := s.Solve(cpdemo.AssignSmallest(queens))
				fmt.Printf("n=%-3d found=%-5t branches=%-8d fails=%-8d\n", n, found, s.Branches(), s.Fails())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&minN, "min", 4, "smallest board size")
	cmd.Flags().IntVar(&maxN, "max", 8, "largest board size")
	cmd.Flags().IntVar(&trailBlockSize, "trail-block-size", cpsolver.DefaultTrailBlockSize, "reversible trail block size")
	cmd.Flags().BoolVar(&compressTrail, "compress-trail", false, "zlib-compress trail blocks once they go cold")
	return cmd
}

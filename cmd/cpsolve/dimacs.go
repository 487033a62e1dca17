package cpsolve

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gophercp/cpcore/internal/cpsat"
	"github.com/gophercp/cpcore/pkg/cpsolver"
)

// NewDimacsCommand solves a CNF given in DIMACS format, mirroring the
// teacher's cmd/dimacs.NewDimacsCommand (path argument, PreRunE existence
// check, RunE does the work).
func NewDimacsCommand() *cobra.Command {
	var trailBlockSize int
	var compressTrail bool

	cmd := &cobra.Command{
		Use:   "dimacs <path>",
		Short: "Solves a SAT problem given in DIMACS format",
		Long: `Solves a SAT problem given in DIMACS format. For instance:
c this is a comment
c header: p cnf <number of variables> <number of clauses>
p cnf 2 2
c clauses end in zero, negative means 'not'
1 2 0
1 -2 0
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file %q not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return solveDimacs(args[0], trailBlockSize, compressTrail)
		},
	}
	cmd.Flags().IntVar(&trailBlockSize, "trail-block-size", cpsolver.DefaultTrailBlockSize, "reversible trail block size")
	cmd.Flags().BoolVar(&compressTrail, "compress-trail", false, "zlib-compress trail blocks once they go cold")
	return cmd
}

func solveDimacs(path string, trailBlockSize int, compressTrail bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening dimacs file %q: %w", path, err)
	}
	defer f.Close()

	cnf, err := cpsat.ParseDIMACS(f)
	if err != nil {
		return fmt.Errorf("parsing dimacs file %q: %w", path, err)
	}

	presolve := cpsat.Presolve(cnf)
	if presolve.Unsat {
		fmt.Println("no solution found (proved unsatisfiable by presolve)")
		return nil
	}

	mode := cpsolver.NoCompression
	if compressTrail {
		mode = cpsolver.CompressWithZlib
	}
	s := cpsolver.NewSolver("dimacs",
		cpsolver.WithTrailBlockSize(trailBlockSize),
		cpsolver.WithCompression(mode),
	)
	model := cpsat.Build(s, cnf, presolve)

	// NewSearch/NextSolution rather than Solve: Solve's EndSearch unbinds
	// every variable before returning, and the values are printed below.
	s.NewSearch(model.DecisionBuilder())
	defer s.EndSearch()
	if !s.NextSolution() {
		fmt.Println("no solution found")
		return nil
	}
	fmt.Println("solution found:")
	for v := 1; v < len(model.Vars); v++ {
		fmt.Printf("%d = %t\n", v, model.Vars[v].Value() == 1)
	}
	return nil
}

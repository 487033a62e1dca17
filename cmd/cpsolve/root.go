package cpsolve

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the cpsolve root command, mirroring the teacher's
// cmd/root.NewRootCmd (a bare root registering child commands built by
// per-subcommand NewXxxCommand constructors).
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cpsolve",
		Short: "cpsolve exercises a finite-domain constraint programming core",
		Long: `cpsolve drives pkg/cpsolver's reversible trail, propagation queue and
search loop against a handful of example models.`,
	}

	rootCmd.AddCommand(NewNQueensCommand())
	rootCmd.AddCommand(NewDimacsCommand())
	rootCmd.AddCommand(NewBenchCommand())

	return rootCmd
}

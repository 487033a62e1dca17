package cpsolver

// ProfileLevel controls whether per-demon run counts are tracked beyond
// the always-on totals.
type ProfileLevel int

const (
	NoProfiling ProfileLevel = iota
	NormalProfiling
)

// TraceLevel controls whether the built-in print-trace propagation monitor
// (printTracePropagationMonitor in monitor.go, writing to stdout) is
// installed by default.
type TraceLevel int

const (
	NoTrace TraceLevel = iota
	NormalTrace
)

// SolverParameters configures a Solver at construction time. Defaults
// mirror the original constraint solver's SolverParameters.
type SolverParameters struct {
	CompressTrail     TrailCompression
	TrailBlockSize    int
	ArraySplitSize    int
	StoreNames        bool
	ProfileLevel      ProfileLevel
	TraceLevel        TraceLevel
	NameAllVariables  bool
}

// DefaultSolverParameters returns the documented defaults.
func DefaultSolverParameters() SolverParameters {
	return SolverParameters{
		CompressTrail:    NoCompression,
		TrailBlockSize:   DefaultTrailBlockSize,
		ArraySplitSize:   16,
		StoreNames:       true,
		ProfileLevel:     NoProfiling,
		TraceLevel:       NoTrace,
		NameAllVariables: false,
	}
}

// Option configures a Solver at construction time, following the
// functional-options shape the teacher uses for its own solver
// constructor (solver.WithInput / solver.WithTracer).
type Option func(*Solver)

// WithTrailBlockSize overrides the trail's block size.
func WithTrailBlockSize(n int) Option {
	return func(s *Solver) { s.params.TrailBlockSize = n }
}

// WithCompression selects the trail's compression mode.
func WithCompression(mode TrailCompression) Option {
	return func(s *Solver) { s.params.CompressTrail = mode }
}

// WithArraySplitSize overrides the array-split threshold used by
// client-side constraint libraries when deciding how finely to
// decompose wide sum/element constraints. The core does not interpret
// it itself; it is carried through so clients share one configuration
// surface with the solver.
func WithArraySplitSize(n int) Option {
	return func(s *Solver) { s.params.ArraySplitSize = n }
}

// WithStoreNames toggles whether SetName actually records names.
func WithStoreNames(store bool) Option {
	return func(s *Solver) { s.params.StoreNames = store }
}

// WithNameAllVariables toggles the lazy anonymous-naming behavior.
func WithNameAllVariables(nameAll bool) Option {
	return func(s *Solver) { s.params.NameAllVariables = nameAll }
}

// WithProfileLevel sets the demon/search profiling level.
func WithProfileLevel(level ProfileLevel) Option {
	return func(s *Solver) { s.params.ProfileLevel = level }
}

// WithTraceLevel sets the propagation trace level.
func WithTraceLevel(level TraceLevel) Option {
	return func(s *Solver) { s.params.TraceLevel = level }
}

package codegen

// Graph-coloring register allocation is deliberately out of scope. The pool
// allocator in allocator.go counts exhaustion events instead of spilling,
// and these support types exist so callers can check for the capability
// without build tags. Every constructor reports the capability as absent.

// SpillManager would choose spill victims and emit reload sequences.
type SpillManager struct{}

// LivenessAnalysis would compute live ranges per virtual value.
type LivenessAnalysis struct{}

// InterferenceGraph would record which live ranges conflict.
type InterferenceGraph struct{}

// NewSpillManager reports the spill-manager capability as unimplemented.
func NewSpillManager() *SpillManager { return nil }

// NewLivenessAnalysis reports the liveness capability as unimplemented.
func NewLivenessAnalysis() *LivenessAnalysis { return nil }

// NewInterferenceGraph reports the interference-graph capability as
// unimplemented.
func NewInterferenceGraph() *InterferenceGraph { return nil }

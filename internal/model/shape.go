package model

// Shape is the structural form of the method a hook is injected into.
type Shape string

const (
	// ShapeRunLoop is a run() method; the hook goes at the start of its body.
	ShapeRunLoop Shape = "run_loop"
	// ShapeConstructor is an instance initializer; the hook goes before its
	// terminal return, once the object is fully built.
	ShapeConstructor Shape = "constructor"
)

// MethodName returns the method name a shape matches.
func (s Shape) MethodName() string {
	if s == ShapeConstructor {
		return "<init>"
	}

	return "run"
}

// Rank orders candidate shapes. Higher wins.
type Rank int

// RankTable assigns a rank to each shape for one mode.
type RankTable map[Shape]Rank

// Ranks holds the rank table of every mode.
type Ranks map[Mode]RankTable

// DefaultRanks prefers the run loop for client sessions and the constructor
// for headless ones.
func DefaultRanks() Ranks {
	return Ranks{
		ModeInteractive: {ShapeRunLoop: 2, ShapeConstructor: 1},
		ModeHeadless:    {ShapeRunLoop: 1, ShapeConstructor: 2},
	}
}

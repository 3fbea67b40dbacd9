// Package bench drives cycle-counted keygen/encaps/decaps loops over a
// kem.Provider and turns the samples into result rows.
package bench

// Op identifies one timed KEM operation.
type Op int

const (
	OpKeygen Op = iota
	OpEncaps
	OpDecaps
)

// Ops lists every operation in the order they run within an iteration.
var Ops = []Op{OpKeygen, OpEncaps, OpDecaps}

func (o Op) String() string {
	switch o {
	case OpKeygen:
		return "keygen"
	case OpEncaps:
		return "encaps"
	case OpDecaps:
		return "decaps"
	default:
		return "unknown"
	}
}

// Sample is the cycle count of one successful operation.
type Sample struct {
	Algorithm string
	Op        Op
	Iteration int
	Cycles    uint64
}

// Row is one output record: a raw sample or a per-operation mean.
type Row struct {
	Algorithm string
	Op        Op
	Cycles    uint64
}

// SampleSet holds everything recorded for one algorithm, in the order it
// was recorded.
type SampleSet struct {
	Algorithm  string
	Iterations int
	Samples    []Sample
	Failures   map[Op]int
	Mismatches int
}

// NewSampleSet returns an empty set for algorithm.
func NewSampleSet(algorithm string) *SampleSet {
	return &SampleSet{
		Algorithm: algorithm,
		Failures:  make(map[Op]int),
	}
}

func (s *SampleSet) add(op Op, iteration int, cycles uint64) {
	s.Samples = append(s.Samples, Sample{
		Algorithm: s.Algorithm,
		Op:        op,
		Iteration: iteration,
		Cycles:    cycles,
	})
}

// Cycles returns the cycle counts recorded for op, in recording order.
func (s *SampleSet) Cycles(op Op) []uint64 {
	var out []uint64
	for _, sample := range s.Samples {
		if sample.Op == op {
			out = append(out, sample.Cycles)
		}
	}
	return out
}

// Stream returns one row per recorded sample, in recording order.
func Stream(s *SampleSet) []Row {
	rows := make([]Row, 0, len(s.Samples))
	for _, sample := range s.Samples {
		rows = append(rows, Row{Algorithm: sample.Algorithm, Op: sample.Op, Cycles: sample.Cycles})
	}
	return rows
}

// Aggregate returns one row per operation holding the mean of that
// operation's samples after trimming the slowest percent. Operations with
// no samples produce no row.
func Aggregate(s *SampleSet, percent int) []Row {
	var rows []Row
	for _, op := range Ops {
		kept := Trim(s.Cycles(op), percent)
		if len(kept) == 0 {
			continue
		}
		rows = append(rows, Row{Algorithm: s.Algorithm, Op: op, Cycles: Mean(kept)})
	}
	return rows
}

package bench

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kembench/pkg/kem"
)

func newTestRunner(p *stubProvider, clock *stepClock, iterations int) *Runner {
	return &Runner{
		Provider:   p,
		Clock:      clock,
		Iterations: iterations,
		Logger:     zerolog.Nop(),
	}
}

func TestRunnerRecordsEveryIteration(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)
	p.add("Algo-A", fixedAlgorithm())

	const n = 25
	set, err := newTestRunner(p, clock, n).Run("Algo-A")
	require.NoError(t, err)

	assert.Equal(t, "Algo-A", set.Algorithm)
	assert.Equal(t, n, set.Iterations)
	for _, op := range Ops {
		assert.Len(t, set.Cycles(op), n, op.String())
		assert.Zero(t, set.Failures[op], op.String())
	}
	assert.Equal(t, []uint64{100, 100, 100}, set.Cycles(OpKeygen)[:3])
	assert.Equal(t, uint64(200), set.Cycles(OpEncaps)[0])
	assert.Equal(t, uint64(300), set.Cycles(OpDecaps)[0])

	assert.Equal(t, 1, p.opened["Algo-A"])
	assert.Equal(t, 1, p.released["Algo-A"], "context released after the run")
}

func TestRunnerSamplesAreOrderedByIteration(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)
	p.add("Algo-A", fixedAlgorithm())

	set, err := newTestRunner(p, clock, 2).Run("Algo-A")
	require.NoError(t, err)

	require.Len(t, set.Samples, 6)
	want := []struct {
		op        Op
		iteration int
	}{
		{OpKeygen, 0}, {OpEncaps, 0}, {OpDecaps, 0},
		{OpKeygen, 1}, {OpEncaps, 1}, {OpDecaps, 1},
	}
	for i, w := range want {
		assert.Equal(t, w.op, set.Samples[i].Op)
		assert.Equal(t, w.iteration, set.Samples[i].Iteration)
	}
}

func TestRunnerKeygenFailureSkipsRound(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)
	alg := p.add("Algo-A", fixedAlgorithm())
	alg.failOn[OpKeygen] = map[int]bool{2: true}

	set, err := newTestRunner(p, clock, 5).Run("Algo-A")
	require.NoError(t, err)

	for _, op := range Ops {
		assert.Len(t, set.Cycles(op), 4, op.String())
	}
	assert.Equal(t, 1, set.Failures[OpKeygen])
	for _, s := range set.Samples {
		assert.NotEqual(t, 2, s.Iteration, "no %s sample for the failed round", s.Op)
	}
}

func TestRunnerEncapsFailureKeepsKeygen(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)
	alg := p.add("Algo-A", fixedAlgorithm())
	alg.failOn[OpEncaps] = map[int]bool{0: true, 3: true}

	set, err := newTestRunner(p, clock, 4).Run("Algo-A")
	require.NoError(t, err)

	assert.Len(t, set.Cycles(OpKeygen), 4)
	assert.Len(t, set.Cycles(OpEncaps), 2)
	assert.Len(t, set.Cycles(OpDecaps), 2)
	assert.Equal(t, 2, set.Failures[OpEncaps])
	assert.Zero(t, set.Failures[OpDecaps], "decaps is not attempted after encaps fails")

	var keygenRounds []int
	for _, s := range set.Samples {
		if s.Op == OpKeygen {
			keygenRounds = append(keygenRounds, s.Iteration)
		}
		if s.Op == OpDecaps {
			assert.NotContains(t, []int{0, 3}, s.Iteration)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3}, keygenRounds)
}

func TestRunnerDecapsFailureKeepsEarlierSamples(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)
	alg := p.add("Algo-A", fixedAlgorithm())
	alg.failOn[OpDecaps] = map[int]bool{1: true}

	set, err := newTestRunner(p, clock, 3).Run("Algo-A")
	require.NoError(t, err)

	assert.Len(t, set.Cycles(OpKeygen), 3)
	assert.Len(t, set.Cycles(OpEncaps), 3)
	assert.Len(t, set.Cycles(OpDecaps), 2)
	assert.Equal(t, 1, set.Failures[OpDecaps])
}

func TestRunnerEveryRoundFails(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)
	alg := p.add("Algo-A", fixedAlgorithm())
	alg.failOn[OpKeygen] = map[int]bool{0: true, 1: true, 2: true}

	set, err := newTestRunner(p, clock, 3).Run("Algo-A")
	require.NoError(t, err, "operation failures never fail the run")

	assert.Empty(t, set.Samples)
	assert.Equal(t, 3, set.Failures[OpKeygen])
	assert.Empty(t, Aggregate(set, DefaultTrimPercent))
	assert.Empty(t, Stream(set))
}

func TestRunnerLogsFailures(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)
	alg := p.add("Algo-A", fixedAlgorithm())
	alg.failOn[OpEncaps] = map[int]bool{1: true}

	var logs bytes.Buffer
	r := newTestRunner(p, clock, 2)
	r.Logger = zerolog.New(&logs)

	_, err := r.Run("Algo-A")
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, `"algorithm":"Algo-A"`)
	assert.Contains(t, out, `"operation":"encaps"`)
	assert.Contains(t, out, `"iteration":1`)
	assert.Contains(t, out, errInjected.Error())
}

func TestRunnerUnsupported(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)

	set, err := newTestRunner(p, clock, 3).Run("Algo-B")
	assert.Nil(t, set)
	assert.True(t, errors.Is(err, kem.ErrUnsupported))
}

func TestRunnerVerifySharedSecret(t *testing.T) {
	clock := &stepClock{}
	p := newStubProvider(clock)
	p.add("Good", fixedAlgorithm())
	bad := p.add("Bad", fixedAlgorithm())
	bad.corrupt = true

	r := newTestRunner(p, clock, 4)
	r.VerifySharedSecret = true

	good, err := r.Run("Good")
	require.NoError(t, err)
	assert.Zero(t, good.Mismatches)

	set, err := r.Run("Bad")
	require.NoError(t, err)
	assert.Equal(t, 4, set.Mismatches)
	assert.Len(t, set.Cycles(OpDecaps), 4, "mismatching rounds still produce samples")
}

func TestAggregate(t *testing.T) {
	set := NewSampleSet("Algo-A")
	for i, v := range []uint64{10, 20, 30} {
		set.add(OpKeygen, i, v)
	}
	for i, v := range []uint64{1, 2, 3, 4} {
		set.add(OpEncaps, i, v)
	}

	assert.Equal(t, []Row{
		{Algorithm: "Algo-A", Op: OpKeygen, Cycles: 20},
		{Algorithm: "Algo-A", Op: OpEncaps, Cycles: 2},
	}, Aggregate(set, 25), "keygen keeps all 3 samples at 25%, encaps drops 4")

	assert.Equal(t, []Row{
		{Algorithm: "Algo-A", Op: OpKeygen, Cycles: 20},
		{Algorithm: "Algo-A", Op: OpEncaps, Cycles: 2},
	}, Aggregate(set, 0), "mean of 1..4 truncates to 2")
}

func TestStream(t *testing.T) {
	set := NewSampleSet("Algo-A")
	set.add(OpKeygen, 0, 5)
	set.add(OpEncaps, 0, 6)
	set.add(OpKeygen, 1, 7)

	assert.Equal(t, []Row{
		{Algorithm: "Algo-A", Op: OpKeygen, Cycles: 5},
		{Algorithm: "Algo-A", Op: OpEncaps, Cycles: 6},
		{Algorithm: "Algo-A", Op: OpKeygen, Cycles: 7},
	}, Stream(set))
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "keygen", OpKeygen.String())
	assert.Equal(t, "encaps", OpEncaps.String())
	assert.Equal(t, "decaps", OpDecaps.String())
	assert.Equal(t, "unknown", Op(42).String())
}

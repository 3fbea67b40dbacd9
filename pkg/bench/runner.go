package bench

import (
	"bytes"

	"github.com/rs/zerolog"

	"kembench/pkg/cycles"
	"kembench/pkg/kem"
)

// Clock returns a monotonically non-decreasing cycle count.
type Clock interface {
	Now() uint64
}

// Runner times keygen, encaps and decaps for one algorithm at a time.
type Runner struct {
	Provider           kem.Provider
	Clock              Clock
	Iterations         int
	VerifySharedSecret bool
	Logger             zerolog.Logger
}

// Run opens a context for name and times Iterations rounds. The only error
// is the provider refusing the algorithm; failed operations are logged,
// counted and leave no sample.
func (r *Runner) Run(name string) (*SampleSet, error) {
	ctx, err := r.Provider.NewContext(name)
	if err != nil {
		return nil, err
	}
	defer ctx.Release()

	set := NewSampleSet(name)
	set.Iterations = r.Iterations
	lengths := ctx.Lengths()

	for i := 0; i < r.Iterations; i++ {
		r.round(ctx, lengths, i, set)
	}
	return set, nil
}

// round runs one keygen/encaps/decaps sequence, stopping at the first failure.
func (r *Runner) round(ctx kem.Context, lengths kem.Lengths, iteration int, set *SampleSet) {
	buf := kem.NewBuffers(lengths)

	start := r.Clock.Now()
	err := ctx.Keypair(buf.PublicKey, buf.SecretKey)
	end := r.Clock.Now()
	if err != nil {
		r.fail(set, OpKeygen, iteration, err)
		return
	}
	set.add(OpKeygen, iteration, cycles.Elapsed(start, end))

	start = r.Clock.Now()
	err = ctx.Encapsulate(buf.Ciphertext, buf.SharedSecretEnc, buf.PublicKey)
	end = r.Clock.Now()
	if err != nil {
		r.fail(set, OpEncaps, iteration, err)
		return
	}
	set.add(OpEncaps, iteration, cycles.Elapsed(start, end))

	start = r.Clock.Now()
	err = ctx.Decapsulate(buf.SharedSecretDec, buf.Ciphertext, buf.SecretKey)
	end = r.Clock.Now()
	if err != nil {
		r.fail(set, OpDecaps, iteration, err)
		return
	}
	set.add(OpDecaps, iteration, cycles.Elapsed(start, end))

	if r.VerifySharedSecret && !bytes.Equal(buf.SharedSecretEnc, buf.SharedSecretDec) {
		set.Mismatches++
		r.Logger.Warn().
			Str("algorithm", set.Algorithm).
			Int("iteration", iteration).
			Msg("shared secrets differ after decapsulation")
	}
}

func (r *Runner) fail(set *SampleSet, op Op, iteration int, err error) {
	set.Failures[op]++
	r.Logger.Warn().
		Err(err).
		Str("algorithm", set.Algorithm).
		Stringer("operation", op).
		Int("iteration", iteration).
		Msg("operation failed, skipping rest of round")
}

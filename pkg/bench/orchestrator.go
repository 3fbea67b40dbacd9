package bench

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kembench/pkg/kem"
)

// ErrOutput wraps failures to persist results. It is the only error that
// stops a run.
var ErrOutput = errors.New("result output failed")

// Sink receives result rows.
type Sink interface {
	Write(rows []Row) error
	Flush() error
}

// OpSummary describes one operation of one benchmarked algorithm.
type OpSummary struct {
	Op       Op
	Samples  int
	Kept     int
	Mean     uint64
	Failures int
}

// AlgorithmSummary describes one benchmarked algorithm.
type AlgorithmSummary struct {
	Name       string
	Iterations int
	Ops        []OpSummary
	Mismatches int
}

// Summary is what a run did, for console reporting.
type Summary struct {
	RunID       string
	Mode        Mode
	TrimPercent int
	Algorithms  []AlgorithmSummary
	Skipped     []string
}

// Orchestrator benchmarks a list of algorithms one after another.
type Orchestrator struct {
	Provider kem.Provider
	Clock    Clock
	Sink     Sink
	Logger   zerolog.Logger
}

// RunAll benchmarks cfg.Algorithms in order. Unsupported algorithms are
// skipped with a warning. Rows are flushed after every algorithm so that a
// later failure leaves earlier results on disk. A sink error aborts the run
// and is returned wrapped in ErrOutput; the summary so far is still returned.
func (o *Orchestrator) RunAll(cfg RunConfig) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:       uuid.NewString(),
		Mode:        cfg.Mode,
		TrimPercent: cfg.TrimPercent,
	}
	logger := o.Logger.With().Str("run_id", summary.RunID).Logger()

	runner := &Runner{
		Provider:           o.Provider,
		Clock:              o.Clock,
		Iterations:         cfg.Iterations,
		VerifySharedSecret: cfg.VerifySharedSecret,
		Logger:             logger,
	}

	for _, name := range cfg.Algorithms {
		if !o.Provider.IsEnabled(name) {
			logger.Warn().Str("algorithm", name).Msg("algorithm not supported, skipping")
			summary.Skipped = append(summary.Skipped, name)
			continue
		}

		logger.Info().Str("algorithm", name).Int("iterations", cfg.Iterations).Msg("testing")
		set, err := runner.Run(name)
		if errors.Is(err, kem.ErrUnsupported) {
			logger.Warn().Str("algorithm", name).Err(err).Msg("algorithm not supported, skipping")
			summary.Skipped = append(summary.Skipped, name)
			continue
		}
		if err != nil {
			logger.Error().Str("algorithm", name).Err(err).Msg("could not open algorithm, skipping")
			summary.Skipped = append(summary.Skipped, name)
			continue
		}

		var rows []Row
		switch cfg.Mode {
		case ModeStream:
			rows = Stream(set)
		default:
			rows = Aggregate(set, cfg.TrimPercent)
		}
		for _, op := range Ops {
			if len(set.Cycles(op)) == 0 {
				logger.Warn().Str("algorithm", name).Stringer("operation", op).Msg("no successful samples")
			}
		}

		if err := o.Sink.Write(rows); err != nil {
			return summary, fmt.Errorf("%w: writing %s: %w", ErrOutput, name, err)
		}
		if err := o.Sink.Flush(); err != nil {
			return summary, fmt.Errorf("%w: flushing %s: %w", ErrOutput, name, err)
		}

		summary.Algorithms = append(summary.Algorithms, summarize(set, cfg.TrimPercent))
		logger.Debug().Str("algorithm", name).Int("rows", len(rows)).Msg("results written")
	}

	return summary, nil
}

func summarize(set *SampleSet, percent int) AlgorithmSummary {
	out := AlgorithmSummary{
		Name:       set.Algorithm,
		Iterations: set.Iterations,
		Mismatches: set.Mismatches,
	}
	for _, op := range Ops {
		samples := set.Cycles(op)
		kept := Trim(samples, percent)
		out.Ops = append(out.Ops, OpSummary{
			Op:       op,
			Samples:  len(samples),
			Kept:     len(kept),
			Mean:     Mean(kept),
			Failures: set.Failures[op],
		})
	}
	return out
}

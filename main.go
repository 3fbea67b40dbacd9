package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kembench/pkg/bench"
	"kembench/pkg/cycles"
	"kembench/pkg/kem"
	"kembench/pkg/report"
	"kembench/pkg/results"
	"kembench/pkg/sched"
)

// ------------------------ Exit Codes ------------------------

const (
	exitSuccess        = 0
	exitInvalidConfig  = 1
	exitOutputFailed   = 2
	exitNoCycleCounter = 3
)

// exitCodeForError maps a fatal error to the process exit code. Per-algorithm
// failures never reach here, so a run that completes exits 0.
func exitCodeForError(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, bench.ErrOutput):
		return exitOutputFailed
	case errors.Is(err, cycles.ErrUnavailable):
		return exitNoCycleCounter
	default:
		return exitInvalidConfig
	}
}

// ------------------------ Logging ------------------------

func newLogger(out io.Writer, color, verbose, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}

	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: !color}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ------------------------ Commands ------------------------

// elevate raises the scheduling priority of the calling thread.
var elevate = sched.Elevate

// runBenchmark benchmarks every configured algorithm and writes the results
// file. Only an unusable output file or a missing cycle counter is fatal.
//
// The goroutine stays on one OS thread for the whole run so that the measured
// code runs on the thread whose priority was raised.
func runBenchmark(cfg *Config, provider *kem.Registry, logger zerolog.Logger, summaryOut io.Writer, color bool) (err error) {
	if !cycles.Available {
		return cycles.ErrUnavailable
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	provider.Disable(cfg.Disabled...)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if cfg.Priority {
		if err := elevate(); err != nil {
			logger.Warn().Err(err).Msg("could not raise scheduling priority, continuing at normal priority")
		} else {
			logger.Debug().Msg("scheduling priority raised")
		}
	}

	sink, err := results.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("%w: %w", bench.ErrOutput, err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			err = multierror.Append(err, fmt.Errorf("%w: %w", bench.ErrOutput, cerr))
		}
	}()

	orchestrator := &bench.Orchestrator{
		Provider: provider,
		Clock:    cycles.Counter{},
		Sink:     sink,
		Logger:   logger,
	}

	summary, err := orchestrator.RunAll(cfg.RunConfig())
	if summary != nil {
		if rerr := report.Render(summaryOut, summary, color); rerr != nil {
			logger.Warn().Err(rerr).Msg("could not print summary")
		}
	}
	if err != nil {
		return err
	}

	logger.Info().
		Str("output", cfg.Output).
		Int("benchmarked", len(summary.Algorithms)).
		Int("skipped", len(summary.Skipped)).
		Msg("benchmark complete")
	return nil
}

// cmdList prints every identifier the provider knows with its buffer sizes.
func cmdList(w io.Writer, provider *kem.Registry) error {
	for _, name := range provider.Names() {
		d, _ := provider.Describe(name)
		state := "enabled"
		if !d.Enabled {
			state = "disabled"
		}
		if _, err := fmt.Fprintf(w, "%-32s pk=%-6d sk=%-6d ct=%-6d ss=%-3d %s\n",
			d.Name, d.Lengths.PublicKey, d.Lengths.SecretKey, d.Lengths.Ciphertext, d.Lengths.SharedSecret, state); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig builds the run configuration from defaults, an optional TOML
// file, then any flags the user set.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	flags := cmd.Flags()

	cfg := DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		cfg = *loaded
	}

	if flags.Changed("iterations") {
		cfg.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("trim") {
		cfg.TrimPercent, _ = flags.GetInt("trim")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("mode") {
		cfg.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("algorithms") {
		cfg.Algorithms, _ = flags.GetStringSlice("algorithms")
	}
	if flags.Changed("disable") {
		disabled, _ := flags.GetStringSlice("disable")
		cfg.Disabled = append(cfg.Disabled, disabled...)
	}
	if noPriority, _ := flags.GetBool("no-priority"); noPriority {
		cfg.Priority = false
	}
	if flags.Changed("verify") {
		cfg.VerifySharedSecret, _ = flags.GetBool("verify")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ------------------------ Cobra Commands ------------------------

var rootCmd = &cobra.Command{
	Use:   "kembench",
	Short: "kembench - CPU cycle benchmarks for KEM algorithms",
	Long: "Times key generation, encapsulation and decapsulation of post-quantum KEM algorithms " +
		"with the CPU cycle counter and writes the results to a CSV file. " +
		"Without flags it runs the built-in algorithm list for 1000 iterations.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")
		logger := newLogger(os.Stderr, isTerminal(os.Stderr), verbose, quiet)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		return runBenchmark(cfg, kem.NewDefaultRegistry(), logger, cmd.OutOrStdout(), isTerminal(os.Stdout))
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available KEM algorithms",
	Long:  "List every algorithm identifier the built-in provider implements, with its key, ciphertext and shared secret sizes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := kem.NewDefaultRegistry()
		disabled, _ := cmd.Flags().GetStringSlice("disable")
		registry.Disable(disabled...)
		return cmdList(cmd.OutOrStdout(), registry)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringP("config", "c", "", "Path to TOML configuration file")
	flags.IntP("iterations", "n", defaultIterations, "Iterations per algorithm")
	flags.Int("trim", bench.DefaultTrimPercent, "Percent of slowest samples dropped before averaging (aggregate mode)")
	flags.StringP("output", "o", defaultOutput, "Results CSV file")
	flags.String("mode", string(bench.ModeAggregate), "Output mode: "+strings.Join([]string{string(bench.ModeAggregate), string(bench.ModeStream)}, " or "))
	flags.StringSlice("algorithms", nil, "Comma-separated algorithm identifiers (default: built-in list)")
	flags.Bool("no-priority", false, "Do not request elevated scheduling priority")
	flags.Bool("verify", false, "Check that encapsulated and decapsulated shared secrets match")
	flags.BoolP("verbose", "v", false, "Debug logging")
	flags.BoolP("quiet", "q", false, "Only log errors")

	rootCmd.PersistentFlags().StringSlice("disable", nil, "Algorithm identifiers to treat as unsupported")

	rootCmd.AddCommand(listCmd)
}

// ------------------------ Main ------------------------

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeForError(err))
	}
}

package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"kembench/pkg/bench"
)

// DefaultAlgorithms is the compiled-in algorithm list. Identifiers without an
// implementation are reported as unsupported and skipped.
var DefaultAlgorithms = []string{
	// BIKE
	"BIKE-L1", "BIKE-L3", "BIKE-L5",

	// Classic McEliece
	"Classic-McEliece-348864", "Classic-McEliece-348864f",
	"Classic-McEliece-460896", "Classic-McEliece-460896f",
	"Classic-McEliece-6688128", "Classic-McEliece-6688128f",
	"Classic-McEliece-6960119", "Classic-McEliece-6960119f",
	"Classic-McEliece-8192128", "Classic-McEliece-8192128f",

	// HQC
	"HQC-128", "HQC-192", "HQC-256",

	// ML-KEM (Kyber)
	"Kyber512", "Kyber768", "Kyber1024",
	"ML-KEM-512", "ML-KEM-768", "ML-KEM-1024",

	// NTRU Prime
	"sntrup761", "sntrup4591761",

	// FrodoKEM
	"FrodoKEM-640-AES", "FrodoKEM-640-SHAKE",
	"FrodoKEM-976-AES", "FrodoKEM-976-SHAKE",
	"FrodoKEM-1344-AES", "FrodoKEM-1344-SHAKE",

	// Hybrid and classical baselines
	"X-Wing", "X25519",
}

const (
	defaultIterations = 1000
	defaultOutput     = "kem_results.csv"
)

// Config is the complete run configuration. Keys missing from a TOML file
// keep their defaults.
type Config struct {
	Iterations         int      `toml:"iterations"`
	TrimPercent        int      `toml:"trim_percent"`
	Output             string   `toml:"output"`
	Mode               string   `toml:"mode"`
	Algorithms         []string `toml:"algorithms"`
	Disabled           []string `toml:"disabled"`             // treated as compiled out
	Priority           bool     `toml:"priority"`             // request elevated scheduling priority
	VerifySharedSecret bool     `toml:"verify_shared_secret"` // compare encaps/decaps secrets
}

// DefaultConfig returns the compiled-in configuration.
func DefaultConfig() Config {
	return Config{
		Iterations:  defaultIterations,
		TrimPercent: bench.DefaultTrimPercent,
		Output:      defaultOutput,
		Mode:        string(bench.ModeAggregate),
		Algorithms:  append([]string(nil), DefaultAlgorithms...),
		Priority:    true,
	}
}

// LoadConfig loads configuration from a TOML file on top of the defaults
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(filename, &config); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("%w: output path is required", bench.ErrInvalidConfig)
	}
	return c.RunConfig().Validate()
}

// RunConfig returns the part of the configuration the benchmark loop reads.
func (c *Config) RunConfig() bench.RunConfig {
	return bench.RunConfig{
		Iterations:         c.Iterations,
		TrimPercent:        c.TrimPercent,
		Algorithms:         c.Algorithms,
		Mode:               bench.Mode(c.Mode),
		VerifySharedSecret: c.VerifySharedSecret,
	}
}

// Package config parses the fibbench command line into an AppConfig.
//
// The first positional argument selects the command; the remaining
// arguments are flags shared by every command. Values are resolved with the
// precedence flag > FIBBENCH_* environment variable > YAML file (-config) >
// built-in default.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/fibbench/internal/errors"
	"github.com/agbru/fibbench/internal/fibonacci"
	"github.com/agbru/fibbench/internal/logging"
)

// EnvPrefix is the prefix for all environment variables used by fibbench.
const EnvPrefix = "FIBBENCH_"

// Command names the sub-command to run.
type Command string

const (
	CommandCalc     Command = "calc"
	CommandCompare  Command = "compare"
	CommandInfo     Command = "info"
	CommandSequence Command = "sequence"
	CommandBinet    Command = "binet"
	CommandModular  Command = "modular"
	CommandMemory   Command = "memory"
	CommandBatch    Command = "batch"
	CommandServe    Command = "serve"
)

// Commands lists every command in help order.
func Commands() []Command {
	return []Command{
		CommandCalc, CommandCompare, CommandInfo, CommandSequence, CommandBinet,
		CommandModular, CommandMemory, CommandBatch, CommandServe,
	}
}

// Default configuration values.
const (
	DefaultN            uint64 = 50
	DefaultMethod              = fibonacci.VariantIterative
	DefaultTimeout             = 1 * time.Minute
	DefaultPort                = "8080"
	DefaultMaxRecursive uint64 = 30
	DefaultCount        uint64 = 20
	DefaultMaxN         uint64 = 100
	DefaultModulus             = "1000000007"
	DefaultConcurrency         = 1
	DefaultLogLevel            = "warn"

	// MaxSequenceCount bounds the sequence command's output.
	MaxSequenceCount uint64 = 10_000
	// MaxBatchSize bounds the number of indices in one batch.
	MaxBatchSize = 10_000
)

// AppConfig aggregates the resolved configuration of one invocation.
type AppConfig struct {
	Command Command

	// N is the Fibonacci index for calc, compare, modular and memory.
	N uint64
	// Method is the algorithm for calc, memory and batch, and the filter for
	// info when AllMethods is false.
	Method fibonacci.Variant
	// AllMethods is set by "-method all"; only info accepts it.
	AllMethods bool
	// ShowTime prints the measured duration next to calc results.
	ShowTime bool
	// MaxRecursive is the largest n compare runs naive recursion for.
	MaxRecursive uint64
	// Start and Count select the terms printed by sequence.
	Start uint64
	Count uint64
	// MaxN is the last index of the binet accuracy table.
	MaxN uint64
	// Modulus is the modular command's modulus, kept as text until Validate.
	Modulus string
	// ModulusValue is Modulus parsed by Validate.
	ModulusValue fibonacci.Value
	// Indices are the batch command's inputs, in order.
	Indices []uint64
	// Concurrency limits parallel calculations in compare and batch.
	Concurrency int

	Timeout    time.Duration
	Port       string
	JSONOutput bool
	Quiet      bool
	NoColor    bool
	LogLevel   string
	// ConfigFile is the optional YAML file that was loaded.
	ConfigFile string
}

// Validate checks the configuration for the selected command. Every
// failure is an apperrors.ConfigError.
func (c *AppConfig) Validate() error {
	if !isKnownCommand(c.Command) {
		return apperrors.NewConfigError("unknown command %q (valid: %s)", c.Command, commandList())
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.WrapConfigError(err, "invalid -log-level")
	}
	if c.Concurrency < 0 {
		return apperrors.NewConfigError("concurrency cannot be negative: %d", c.Concurrency)
	}
	if c.MaxRecursive == 0 {
		return apperrors.NewConfigError("-max-recursive must be at least 1")
	}
	if c.AllMethods && c.Command != CommandInfo {
		return apperrors.NewConfigError("-method all is only accepted by the info command")
	}

	switch c.Command {
	case CommandModular:
		m, err := fibonacci.ParseValue(c.Modulus)
		if err != nil {
			return apperrors.WrapConfigError(err, "invalid -modulus")
		}
		if _, err := fibonacci.Modular(0, m); err != nil {
			return apperrors.WrapConfigError(err, "invalid -modulus")
		}
		c.ModulusValue = m
	case CommandSequence:
		if c.Count == 0 || c.Count > MaxSequenceCount {
			return apperrors.NewConfigError("-count must be between 1 and %d, got %d", MaxSequenceCount, c.Count)
		}
	case CommandBinet:
		if c.MaxN > fibonacci.MaxExactIndex {
			return apperrors.NewConfigError("-max-n cannot exceed %d, the last exactly representable index", fibonacci.MaxExactIndex)
		}
	case CommandBatch:
		if len(c.Indices) == 0 {
			return apperrors.NewConfigError("-indices is required for the batch command")
		}
		if len(c.Indices) > MaxBatchSize {
			return apperrors.NewConfigError("at most %d indices per batch, got %d", MaxBatchSize, len(c.Indices))
		}
	case CommandServe:
		if c.Port == "" {
			return apperrors.NewConfigError("-port cannot be empty")
		}
	}
	return nil
}

// ParseConfig parses args (typically os.Args[1:]). The first argument is the
// command; when it is missing or starts with '-', calc is assumed. Usage and
// parse errors are written to errorWriter. A request for help returns
// flag.ErrHelp.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	config := AppConfig{Command: CommandCalc}
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if args[0] == "help" {
			args = []string{"-h"}
		} else {
			config.Command = Command(strings.ToLower(args[0]))
			args = args[1:]
		}
	}

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	method := methodFlag{variant: DefaultMethod}
	indices := indexListFlag{}

	fs.Uint64Var(&config.N, "n", DefaultN, "Index n of the Fibonacci number.")
	fs.Var(&method, "method", fmt.Sprintf("Algorithm: one of [%s] or an alias (info also accepts 'all').", variantList()))
	fs.BoolVar(&config.ShowTime, "time", false, "Show the measured duration (calc).")
	fs.Uint64Var(&config.MaxRecursive, "max-recursive", DefaultMaxRecursive, "Largest n for naive recursion in compare and info -time (at least 1).")
	fs.Uint64Var(&config.Start, "start", 0, "First index printed by sequence.")
	fs.Uint64Var(&config.Count, "count", DefaultCount, "Number of terms printed by sequence.")
	fs.Uint64Var(&config.MaxN, "max-n", DefaultMaxN, "Last index of the binet accuracy table.")
	fs.StringVar(&config.Modulus, "modulus", DefaultModulus, "Modulus for the modular command (2 to 2^128-1).")
	fs.Var(&indices, "indices", "Comma-separated indices for the batch command.")
	fs.IntVar(&config.Concurrency, "concurrency", DefaultConcurrency, "Parallel calculations in compare and batch (0 = GOMAXPROCS).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on (serve).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print only the result value.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error, disabled.")
	fs.StringVar(&config.ConfigFile, "config", "", "Path to a YAML configuration file.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.WrapConfigError(err, "invalid arguments")
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(errorWriter, "Unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	config.Method, config.AllMethods = method.variant, method.all
	config.Indices = indices

	if !isFlagSet(fs, "config") {
		config.ConfigFile = getEnvString("CONFIG", config.ConfigFile)
	}
	if config.ConfigFile != "" {
		fc, err := LoadFile(config.ConfigFile)
		if err != nil {
			fmt.Fprintln(errorWriter, "Configuration error:", err)
			return AppConfig{}, err
		}
		fc.apply(&config, fs)
	}

	applyEnvOverrides(&config, fs)

	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}

// IsHelp reports whether err is the flag package's help request.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

func isKnownCommand(c Command) bool {
	for _, known := range Commands() {
		if c == known {
			return true
		}
	}
	return false
}

func commandList() string {
	names := make([]string, 0, len(Commands()))
	for _, c := range Commands() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func variantList() string {
	names := make([]string, 0, len(fibonacci.Variants()))
	for _, v := range fibonacci.Variants() {
		names = append(names, v.Name())
	}
	return strings.Join(names, ", ")
}

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/fibbench/internal/fibonacci"
)

// getEnvString returns the value of EnvPrefix+key, or defaultVal if unset.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns EnvPrefix+key parsed as uint64, or defaultVal if the
// variable is unset or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool accepts "true", "1", "yes" and "false", "0", "no"
// (case-insensitive). Anything else yields defaultVal.
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet reports whether the flag was given explicitly on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies FIBBENCH_* variables to every field whose flag
// was not set explicitly. Invalid values are ignored and the previous value
// (file or default) is kept.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "n") {
		config.N = getEnvUint64("N", config.N)
	}
	if !isFlagSet(fs, "max-recursive") {
		config.MaxRecursive = getEnvUint64("MAX_RECURSIVE", config.MaxRecursive)
	}
	if !isFlagSet(fs, "max-n") {
		config.MaxN = getEnvUint64("MAX_N", config.MaxN)
	}
	if !isFlagSet(fs, "concurrency") {
		config.Concurrency = getEnvInt("CONCURRENCY", config.Concurrency)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "method") {
		if val := getEnvString("METHOD", ""); val != "" {
			var m methodFlag
			if err := m.Set(val); err == nil {
				config.Method, config.AllMethods = m.variant, m.all
			}
		}
	}
	if !isFlagSet(fs, "modulus") {
		config.Modulus = getEnvString("MODULUS", config.Modulus)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "quiet") && !isFlagSet(fs, "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "time") {
		config.ShowTime = getEnvBool("TIME", config.ShowTime)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
}

// methodFlag accepts a fibonacci.Variant name or alias, or "all".
type methodFlag struct {
	variant fibonacci.Variant
	all     bool
}

func (m *methodFlag) String() string {
	if m == nil {
		return ""
	}
	if m.all {
		return "all"
	}
	return m.variant.String()
}

func (m *methodFlag) Set(s string) error {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		m.all = true
		return nil
	}
	v, err := fibonacci.ParseVariant(s)
	if err != nil {
		return err
	}
	m.variant, m.all = v, false
	return nil
}

// indexListFlag parses "1,2,3" into a list of indices. Repeating the flag
// appends.
type indexListFlag []uint64

func (l *indexListFlag) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, n := range *l {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(parts, ",")
}

func (l *indexListFlag) Set(s string) error {
	indices, err := ParseIndices(s)
	if err != nil {
		return err
	}
	*l = append(*l, indices...)
	return nil
}

// ParseIndices parses a comma-separated list of Fibonacci indices. Spaces
// around entries and empty entries are ignored.
func ParseIndices(s string) ([]uint64, error) {
	var out []uint64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

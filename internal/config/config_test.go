package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/fibbench/internal/errors"
	"github.com/agbru/fibbench/internal/fibonacci"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fibbench.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig("fibbench", nil, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Command != CommandCalc {
		t.Errorf("Expected default command calc, got %s", cfg.Command)
	}
	if cfg.N != DefaultN {
		t.Errorf("Expected default N %d, got %d", DefaultN, cfg.N)
	}
	if cfg.Method != fibonacci.VariantIterative {
		t.Errorf("Expected default method iterative, got %s", cfg.Method)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.MaxRecursive != 30 {
		t.Errorf("Expected default max-recursive 30, got %d", cfg.MaxRecursive)
	}
}

func TestParseConfigCommandsAndFlags(t *testing.T) {
	cfg, err := ParseConfig("fibbench", []string{
		"calc", "-n", "90", "-method", "fast-doubling", "-time", "-json", "-timeout", "10s",
	}, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Command != CommandCalc || cfg.N != 90 {
		t.Errorf("got command %s n %d", cfg.Command, cfg.N)
	}
	if cfg.Method != fibonacci.VariantMatrix {
		t.Errorf("Expected matrix, got %s", cfg.Method)
	}
	if !cfg.ShowTime || !cfg.JSONOutput {
		t.Error("Expected -time and -json to be set")
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", cfg.Timeout)
	}

	cfg, err = ParseConfig("fibbench", []string{"-n", "7", "-q"}, io.Discard)
	if err != nil {
		t.Fatalf("flags without command: %v", err)
	}
	if cfg.Command != CommandCalc || cfg.N != 7 || !cfg.Quiet {
		t.Errorf("flags without command parsed as %+v", cfg)
	}

	cfg, err = ParseConfig("fibbench", []string{"INFO", "-method", "all"}, io.Discard)
	if err != nil {
		t.Fatalf("info -method all: %v", err)
	}
	if cfg.Command != CommandInfo || !cfg.AllMethods {
		t.Errorf("Expected info with all methods, got %+v", cfg)
	}
}

func TestParseConfigModular(t *testing.T) {
	cfg, err := ParseConfig("fibbench", []string{"modular", "-n", "1000", "-modulus", "97"}, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.ModulusValue.String() != "97" {
		t.Errorf("Expected parsed modulus 97, got %s", cfg.ModulusValue)
	}

	for _, bad := range []string{"0", "1", "-3", "abc", "340282366920938463463374607431768211456"} {
		_, err := ParseConfig("fibbench", []string{"modular", "-modulus", bad}, io.Discard)
		var cfgErr apperrors.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("-modulus %s: expected ConfigError, got %v", bad, err)
		}
	}

	_, err = ParseConfig("fibbench", []string{"modular", "-modulus", "1"}, io.Discard)
	if !errors.Is(err, fibonacci.ErrInvalidModulus) {
		t.Errorf("-modulus 1 should wrap ErrInvalidModulus, got %v", err)
	}
}

func TestParseConfigBatchIndices(t *testing.T) {
	cfg, err := ParseConfig("fibbench", []string{"batch", "-indices", "10, 5,,93", "-indices", "0"}, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []uint64{10, 5, 93, 0}
	if len(cfg.Indices) != len(want) {
		t.Fatalf("Indices = %v, want %v", cfg.Indices, want)
	}
	for i := range want {
		if cfg.Indices[i] != want[i] {
			t.Errorf("Indices[%d] = %d, want %d", i, cfg.Indices[i], want[i])
		}
	}

	if _, err := ParseConfig("fibbench", []string{"batch"}, io.Discard); err == nil {
		t.Error("batch without indices should fail")
	}
	if _, err := ParseConfig("fibbench", []string{"batch", "-indices", "1,x"}, io.Discard); err == nil {
		t.Error("malformed index should fail")
	}
}

func TestParseConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"UnknownCommand", []string{"fly"}},
		{"UnknownMethod", []string{"calc", "-method", "bogus"}},
		{"AllOutsideInfo", []string{"calc", "-method", "all"}},
		{"ZeroTimeout", []string{"-timeout", "0s"}},
		{"NegativeConcurrency", []string{"compare", "-concurrency", "-1"}},
		{"ZeroMaxRecursive", []string{"compare", "-n", "90", "-max-recursive", "0"}},
		{"BadLogLevel", []string{"-log-level", "loud"}},
		{"ZeroCount", []string{"sequence", "-count", "0"}},
		{"HugeCount", []string{"sequence", "-count", "10001"}},
		{"BinetPastExact", []string{"binet", "-max-n", "187"}},
		{"EmptyPort", []string{"serve", "-port", ""}},
		{"TrailingArgs", []string{"calc", "-n", "5", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := ParseConfig("fibbench", tt.args, &buf)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if apperrors.ExitCode(err) != apperrors.ExitErrorConfig {
				t.Errorf("Expected config exit code, got %d for %v", apperrors.ExitCode(err), err)
			}
		})
	}
}

func TestParseConfigHelp(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {"help"}, {"serve", "-help"}} {
		var buf bytes.Buffer
		_, err := ParseConfig("fibbench", args, &buf)
		if !IsHelp(err) {
			t.Errorf("%v: expected flag.ErrHelp, got %v", args, err)
		}
		out := buf.String()
		if !strings.Contains(out, "Commands:") || !strings.Contains(out, "-modulus") {
			t.Errorf("%v: usage text incomplete:\n%s", args, out)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FIBBENCH_N", "200")
	t.Setenv("FIBBENCH_METHOD", "matrix")
	t.Setenv("FIBBENCH_TIMEOUT", "2m")
	t.Setenv("FIBBENCH_PORT", "3000")
	t.Setenv("FIBBENCH_JSON", "yes")
	t.Setenv("FIBBENCH_CONCURRENCY", "4")
	t.Setenv("FIBBENCH_LOG_LEVEL", "debug")

	cfg, err := ParseConfig("fibbench", nil, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 200 || cfg.Method != fibonacci.VariantMatrix || cfg.Timeout != 2*time.Minute {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Port != "3000" || !cfg.JSONOutput || cfg.Concurrency != 4 || cfg.LogLevel != "debug" {
		t.Errorf("env not applied: %+v", cfg)
	}

	cfg, err = ParseConfig("fibbench", []string{"-n", "5", "-method", "iterative"}, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 5 || cfg.Method != fibonacci.VariantIterative {
		t.Errorf("flags must win over env, got n=%d method=%s", cfg.N, cfg.Method)
	}
}

func TestEnvInvalidValuesIgnored(t *testing.T) {
	t.Setenv("FIBBENCH_N", "lots")
	t.Setenv("FIBBENCH_METHOD", "quantum")
	t.Setenv("FIBBENCH_TIMEOUT", "soon")
	t.Setenv("FIBBENCH_JSON", "maybe")

	cfg, err := ParseConfig("fibbench", nil, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != DefaultN || cfg.Method != DefaultMethod || cfg.Timeout != DefaultTimeout || cfg.JSONOutput {
		t.Errorf("invalid env values should keep defaults, got %+v", cfg)
	}
}

func TestConfigFilePrecedence(t *testing.T) {
	path := writeConfigFile(t, `
n: 42
method: recursive-memo
timeout: 30s
port: "7070"
max_recursive: 25
indices: [3, 1, 2]
quiet: true
`)

	cfg, err := ParseConfig("fibbench", []string{"-config", path}, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 42 || cfg.Method != fibonacci.VariantRecursiveMemo || cfg.Timeout != 30*time.Second {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Port != "7070" || cfg.MaxRecursive != 25 || !cfg.Quiet || len(cfg.Indices) != 3 {
		t.Errorf("file values not applied: %+v", cfg)
	}

	t.Setenv("FIBBENCH_N", "43")
	cfg, err = ParseConfig("fibbench", []string{"-config", path}, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 43 {
		t.Errorf("env must win over file, got n=%d", cfg.N)
	}

	cfg, err = ParseConfig("fibbench", []string{"-config", path, "-n", "44"}, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 44 {
		t.Errorf("flag must win over env and file, got n=%d", cfg.N)
	}
}

func TestConfigFileFromEnv(t *testing.T) {
	path := writeConfigFile(t, "n: 11\n")
	t.Setenv("FIBBENCH_CONFIG", path)

	cfg, err := ParseConfig("fibbench", nil, io.Discard)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.N != 11 || cfg.ConfigFile != path {
		t.Errorf("FIBBENCH_CONFIG not honoured: n=%d file=%q", cfg.N, cfg.ConfigFile)
	}
}

func TestConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"UnknownKey", "algorithm: fast\n"},
		{"BadTimeout", "timeout: forever\n"},
		{"BadMethod", "method: guess\n"},
		{"Malformed", "n: [1, 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := ParseConfig("fibbench", []string{"-config", path}, io.Discard)
			var cfgErr apperrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected ConfigError, got %v", err)
			}
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file should wrap os.ErrNotExist, got %v", err)
	}
}

func TestParseIndices(t *testing.T) {
	got, err := ParseIndices(" 1,2 , 3,")
	if err != nil || len(got) != 3 || got[2] != 3 {
		t.Errorf("ParseIndices = %v, %v", got, err)
	}
	got, err = ParseIndices("")
	if err != nil || len(got) != 0 {
		t.Errorf("ParseIndices(\"\") = %v, %v", got, err)
	}
	if _, err := ParseIndices("1,-2"); err == nil {
		t.Error("negative index should fail")
	}
}

package config

import (
	"flag"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/fibbench/internal/errors"
)

// FileConfig is the YAML configuration file layout. Absent keys stay nil and
// leave the corresponding setting untouched.
//
//	n: 90
//	method: fast-doubling
//	timeout: 30s
//	port: "9090"
//	log_level: info
type FileConfig struct {
	N            *uint64  `yaml:"n"`
	Method       *string  `yaml:"method"`
	MaxRecursive *uint64  `yaml:"max_recursive"`
	MaxN         *uint64  `yaml:"max_n"`
	Modulus      *string  `yaml:"modulus"`
	Indices      []uint64 `yaml:"indices"`
	Concurrency  *int     `yaml:"concurrency"`
	Timeout      *string  `yaml:"timeout"`
	Port         *string  `yaml:"port"`
	JSON         *bool    `yaml:"json"`
	Quiet        *bool    `yaml:"quiet"`
	NoColor      *bool    `yaml:"no_color"`
	LogLevel     *string  `yaml:"log_level"`

	timeout time.Duration
	method  methodFlag
}

// LoadFile reads and validates a YAML configuration file. Unknown keys are
// rejected so that typos do not go unnoticed.
func LoadFile(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.WrapConfigError(err, "cannot read config file %s", path)
	}
	defer f.Close()

	var fc FileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		return nil, apperrors.WrapConfigError(err, "cannot parse config file %s", path)
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return nil, apperrors.WrapConfigError(err, "invalid timeout in %s", path)
		}
		fc.timeout = d
	}
	if fc.Method != nil {
		if err := fc.method.Set(*fc.Method); err != nil {
			return nil, apperrors.WrapConfigError(err, "invalid method in %s", path)
		}
	}
	return &fc, nil
}

// apply copies file values into config for every flag not set on the
// command line. Environment overrides run afterwards and win over the file.
func (fc *FileConfig) apply(config *AppConfig, fs *flag.FlagSet) {
	setUint := func(name string, dst *uint64, src *uint64) {
		if src != nil && !isFlagSet(fs, name) {
			*dst = *src
		}
	}
	setString := func(name string, dst *string, src *string) {
		if src != nil && !isFlagSet(fs, name) {
			*dst = *src
		}
	}
	setBool := func(name string, dst *bool, src *bool) {
		if src != nil && !isFlagSet(fs, name) {
			*dst = *src
		}
	}

	setUint("n", &config.N, fc.N)
	setUint("max-recursive", &config.MaxRecursive, fc.MaxRecursive)
	setUint("max-n", &config.MaxN, fc.MaxN)
	setString("modulus", &config.Modulus, fc.Modulus)
	setString("port", &config.Port, fc.Port)
	setString("log-level", &config.LogLevel, fc.LogLevel)
	setBool("json", &config.JSONOutput, fc.JSON)
	setBool("no-color", &config.NoColor, fc.NoColor)
	if !isFlagSet(fs, "q") {
		setBool("quiet", &config.Quiet, fc.Quiet)
	}

	if fc.Method != nil && !isFlagSet(fs, "method") {
		config.Method, config.AllMethods = fc.method.variant, fc.method.all
	}
	if fc.Concurrency != nil && !isFlagSet(fs, "concurrency") {
		config.Concurrency = *fc.Concurrency
	}
	if fc.Timeout != nil && !isFlagSet(fs, "timeout") {
		config.Timeout = fc.timeout
	}
	if len(fc.Indices) > 0 && !isFlagSet(fs, "indices") {
		config.Indices = append([]uint64(nil), fc.Indices...)
	}
}

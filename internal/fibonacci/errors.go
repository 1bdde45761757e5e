package fibonacci

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownVariant is matched by errors.Is for any unrecognized
	// algorithm name.
	ErrUnknownVariant = errors.New("unknown algorithm variant")
	// ErrInvalidModulus is matched by errors.Is for a modulus below 2.
	ErrInvalidModulus = errors.New("invalid modulus")
)

// UnknownVariantError reports an algorithm name that does not match any
// variant or alias.
type UnknownVariantError struct {
	Input string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown algorithm variant %q (valid: %s)", e.Input, validNames())
}

func (e *UnknownVariantError) Unwrap() error {
	return ErrUnknownVariant
}

// ModulusError reports a modulus of 0 or 1 passed to Modular.
type ModulusError struct {
	Modulus Value
}

func (e *ModulusError) Error() string {
	return fmt.Sprintf("invalid modulus %s: must be at least 2", e.Modulus)
}

func (e *ModulusError) Unwrap() error {
	return ErrInvalidModulus
}

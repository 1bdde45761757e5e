package fibonacci

import (
	"strings"
)

// Variant selects one of the Fibonacci strategies. The set is closed:
// Calculate dispatches over every value with an exhaustive switch.
type Variant int

const (
	VariantRecursive Variant = iota
	VariantRecursiveMemo
	VariantIterative
	VariantIterativeBranchless
	VariantMatrix
	VariantBinet
)

type variantInfo struct {
	name    string
	display string
	time    string
	space   string
	exact   bool
}

var variantTable = [...]variantInfo{
	VariantRecursive:           {"recursive", "Recursive", "O(2^n)", "O(n)", true},
	VariantRecursiveMemo:       {"recursive_memo", "Recursive (memoized)", "O(n)", "O(n)", true},
	VariantIterative:           {"iterative", "Iterative", "O(n)", "O(1)", true},
	VariantIterativeBranchless: {"iterative_branchless", "Iterative (branchless)", "O(n)", "O(1)", true},
	VariantMatrix:              {"matrix", "Matrix (fast doubling)", "O(log n)", "O(1)", true},
	VariantBinet:               {"binet", "Binet (closed form)", "O(1)", "O(1)", false},
}

// variantAliases maps every accepted lower-case spelling, with '-' already
// folded to '_', to its variant.
var variantAliases = map[string]Variant{
	"recursive":            VariantRecursive,
	"naive":                VariantRecursive,
	"recursive_memo":       VariantRecursiveMemo,
	"memo":                 VariantRecursiveMemo,
	"memoized":             VariantRecursiveMemo,
	"iterative":            VariantIterative,
	"iterative_branchless": VariantIterativeBranchless,
	"branchless":           VariantIterativeBranchless,
	"matrix":               VariantMatrix,
	"fast_doubling":        VariantMatrix,
	"doubling":             VariantMatrix,
	"fast":                 VariantMatrix,
	"binet":                VariantBinet,
	"closed_form":          VariantBinet,
}

// Variants returns every variant in declaration order.
func Variants() []Variant {
	return []Variant{
		VariantRecursive,
		VariantRecursiveMemo,
		VariantIterative,
		VariantIterativeBranchless,
		VariantMatrix,
		VariantBinet,
	}
}

// ParseVariant resolves a case-insensitive name or alias. Any other input is
// an *UnknownVariantError carrying the original text.
func ParseVariant(s string) (Variant, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if v, ok := variantAliases[key]; ok {
		return v, nil
	}
	return 0, &UnknownVariantError{Input: s}
}

func validNames() string {
	names := make([]string, 0, len(variantTable))
	for _, info := range variantTable {
		names = append(names, info.name)
	}
	return strings.Join(names, ", ")
}

// Valid reports whether v is one of the declared variants.
func (v Variant) Valid() bool {
	return v >= 0 && int(v) < len(variantTable)
}

func (v Variant) info() variantInfo {
	if !v.Valid() {
		return variantInfo{name: "unknown", display: "Unknown", time: "?", space: "?"}
	}
	return variantTable[v]
}

// Name returns the canonical lower-case name, e.g. "recursive_memo".
func (v Variant) Name() string { return v.info().name }

// DisplayName returns a human-readable label.
func (v Variant) DisplayName() string { return v.info().display }

// TimeComplexity returns the asymptotic running time.
func (v Variant) TimeComplexity() string { return v.info().time }

// SpaceComplexity returns the asymptotic auxiliary space.
func (v Variant) SpaceComplexity() string { return v.info().space }

// Exact reports whether the variant returns exact (wrapping) results. Binet
// is the only approximate one.
func (v Variant) Exact() bool { return v.info().exact }

// String implements fmt.Stringer and flag.Value.
func (v Variant) String() string { return v.Name() }

// Set implements flag.Value.
func (v *Variant) Set(s string) error {
	parsed, err := ParseVariant(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	return v.Set(string(text))
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.Name()), nil
}

// Calculate computes F(n) with v. An invalid variant falls back to Iterative.
func (v Variant) Calculate(n uint64) Value {
	switch v {
	case VariantRecursive:
		return Recursive(n)
	case VariantRecursiveMemo:
		return RecursiveMemo(n)
	case VariantIterativeBranchless:
		return IterativeBranchless(n)
	case VariantMatrix:
		return FastDoubling(n)
	case VariantBinet:
		return Rounded(n)
	default:
		return Iterative(n)
	}
}

// Calculate is the package-level form of v.Calculate(n).
func Calculate(v Variant, n uint64) Value {
	return v.Calculate(n)
}

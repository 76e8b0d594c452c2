package breeding

import "github.com/danielpatrickdp/breeding-verifier/internal/dna"

// #region constants
const (
	MaxMutation          = 15 // allowed distance from the parental average
	SignificantDeviation = 5  // deviations above this count as a mutation
)

// #endregion constants

// #region result
// Result is the disclosed outcome of a breeding check.
type Result struct {
	IsValid       bool
	MutationCount uint8 // traits deviating more than SignificantDeviation, 0..8
}

// #endregion result

// #region report
// TraitCheck is the per-trait breakdown behind a Result. It stays on the host
// and is never written to the public record.
type TraitCheck struct {
	Name        string
	Average     int
	MinExpected int
	MaxExpected int
	Child       int
	Deviation   int // child - average
	InWindow    bool
	Mutated     bool
}

// Report pairs a Result with the checks that produced it.
type Report struct {
	Result
	Traits             [dna.NumTraits]TraitCheck
	ExpectedGeneration uint64
	GenerationOK       bool
}

// #endregion report

package breeding

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
)

// #region validate
// Validate decides whether child is a legitimate combination of the two parents.
// All eight traits are checked even after a failure so MutationCount is always
// meaningful.
func Validate(parentA, parentB, child dna.TraitVector) Result {
	return Explain(parentA, parentB, child).Result
}

// Explain runs the same checks as Validate and keeps the per-trait detail.
func Explain(parentA, parentB, child dna.TraitVector) Report {
	rep := Report{Result: Result{IsValid: true}}

	for i := 0; i < dna.NumTraits; i++ {
		chk := checkTrait(int(parentA.Traits[i]), int(parentB.Traits[i]), int(child.Traits[i]))
		chk.Name = dna.TraitNames[i]
		rep.Traits[i] = chk

		if !chk.InWindow {
			rep.IsValid = false
		}
		if chk.Mutated {
			rep.MutationCount++
		}
	}

	// uint64 so a MaxUint32 parent does not wrap to generation 0
	rep.ExpectedGeneration = uint64(max(parentA.Generation, parentB.Generation)) + 1
	rep.GenerationOK = uint64(child.Generation) == rep.ExpectedGeneration
	if !rep.GenerationOK {
		rep.IsValid = false
	}

	return rep
}

// Summary describes the outcome by trait name only, so it can be logged without
// disclosing trait values.
func (r Report) Summary() string {
	var outside []string
	for _, chk := range r.Traits {
		if !chk.InWindow {
			outside = append(outside, chk.Name)
		}
	}

	var parts []string
	if len(outside) > 0 {
		parts = append(parts, "outside window: "+strings.Join(outside, ","))
	}
	if !r.GenerationOK {
		parts = append(parts, "generation mismatch")
	}
	parts = append(parts, fmt.Sprintf("%d mutations", r.MutationCount))
	return strings.Join(parts, "; ")
}

// #endregion validate

// #region helpers
func checkTrait(a, b, c int) TraitCheck {
	avg := (a + b) / 2
	lo := max(avg-MaxMutation, 0)
	hi := min(avg+MaxMutation, dna.TraitMax)
	dev := c - avg

	return TraitCheck{
		Average:     avg,
		MinExpected: lo,
		MaxExpected: hi,
		Child:       c,
		Deviation:   dev,
		InWindow:    c >= lo && c <= hi,
		Mutated:     abs(dev) > SignificantDeviation,
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// #endregion helpers

package dna

import "errors"

// #region constants
const (
	NumTraits   = 8
	EncodedSize = NumTraits + 4 // traits + little-endian generation
	TraitMax    = 100
)

// TraitNames lists the heritable traits in wire order.
var TraitNames = [NumTraits]string{
	"social",
	"technical",
	"creativity",
	"analysis",
	"trading",
	"empathy",
	"teaching",
	"leadership",
}

// #endregion constants

// #region errors
// ErrMalformedRecord is the single decoding failure of the breeding wire formats.
// Every fixed-width decoder reports it (wrapped) when a buffer has the wrong length.
var ErrMalformedRecord = errors.New("truncated or malformed record")

// #endregion errors

// #region trait-vector
// TraitVector is one agent's genome at a point in time.
type TraitVector struct {
	Traits     [NumTraits]uint8
	Generation uint32
}

// InRange reports whether every trait lies in the semantic 0-100 domain.
func (v TraitVector) InRange() bool {
	for _, t := range v.Traits {
		if t > TraitMax {
			return false
		}
	}
	return true
}

// #endregion trait-vector

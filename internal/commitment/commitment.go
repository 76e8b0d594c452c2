// Package commitment derives the public 32-byte digest of a child genome.
//
// The reference Mixing scheme is deterministic but trivially invertible over the
// 0-100 trait domain. It is not a hash. SHA256 keeps the same interface for
// deployments that need the digest to be one-way.
package commitment

import (
	"crypto/sha256"
	"fmt"

	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
)

// Size is the digest length in bytes.
const Size = 32

// #region scheme
// Scheme turns a child's traits and generation into a digest.
type Scheme interface {
	Name() string
	Commit(traits [dna.NumTraits]uint8, generation uint32) [Size]byte
}

type mixing struct{}

func (mixing) Name() string { return "mixing" }

func (mixing) Commit(traits [dna.NumTraits]uint8, generation uint32) [Size]byte {
	return Compute(traits, generation)
}

type sha256Scheme struct{}

func (sha256Scheme) Name() string { return "sha256" }

func (sha256Scheme) Commit(traits [dna.NumTraits]uint8, generation uint32) [Size]byte {
	enc := dna.Encode(dna.TraitVector{Traits: traits, Generation: generation})
	return sha256.Sum256(enc[:])
}

var (
	Mixing Scheme = mixing{}
	SHA256 Scheme = sha256Scheme{}
)

// ByName resolves a scheme from configuration. Empty selects Mixing.
func ByName(name string) (Scheme, error) {
	switch name {
	case "", Mixing.Name():
		return Mixing, nil
	case SHA256.Name():
		return SHA256, nil
	default:
		return nil, fmt.Errorf("unknown commitment scheme %q", name)
	}
}

// #endregion scheme

// #region compute
// Compute is the reference mixing function. Output byte i, i+8, i+16 and i+24
// all derive from trait i; arithmetic wraps at 8 bits.
func Compute(traits [dna.NumTraits]uint8, generation uint32) [Size]byte {
	var out [Size]byte
	for i, t := range traits {
		k := uint8(i)
		out[i] = t
		out[i+8] = t + k*13
		out[i+16] = t * (k + 7)
		out[i+24] = t ^ uint8(generation>>(uint(i)*4))
	}
	return out
}

// #endregion compute

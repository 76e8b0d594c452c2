package dna

import (
	"encoding/binary"
	"fmt"
)

// #region codec
// Encode packs a TraitVector into its 12-byte wire form.
func Encode(v TraitVector) [EncodedSize]byte {
	var buf [EncodedSize]byte
	copy(buf[:NumTraits], v.Traits[:])
	binary.LittleEndian.PutUint32(buf[NumTraits:], v.Generation)
	return buf
}

// Decode is the exact inverse of Encode. Any 12-byte buffer decodes; range checks
// belong to the breeding validator.
func Decode(b [EncodedSize]byte) TraitVector {
	var v TraitVector
	copy(v.Traits[:], b[:NumTraits])
	v.Generation = binary.LittleEndian.Uint32(b[NumTraits:])
	return v
}

// DecodeSlice decodes a slice that must be exactly EncodedSize bytes long.
func DecodeSlice(b []byte) (TraitVector, error) {
	if len(b) != EncodedSize {
		return TraitVector{}, fmt.Errorf("trait vector: got %d bytes, want %d: %w", len(b), EncodedSize, ErrMalformedRecord)
	}
	return Decode([EncodedSize]byte(b)), nil
}

// #endregion codec

// #region helpers
// FromInts builds a TraitVector from loosely typed values (CLI flags, JSON bodies).
// Values must fit in a byte; the 0-100 domain is not enforced here.
func FromInts(traits []int, generation uint32) (TraitVector, error) {
	if len(traits) != NumTraits {
		return TraitVector{}, fmt.Errorf("expected %d traits, got %d", NumTraits, len(traits))
	}
	var v TraitVector
	for i, t := range traits {
		if t < 0 || t > 255 {
			return TraitVector{}, fmt.Errorf("trait %s: value %d does not fit in a byte", TraitNames[i], t)
		}
		v.Traits[i] = uint8(t)
	}
	v.Generation = generation
	return v, nil
}

// TraitIndex returns the wire position of a named trait.
func TraitIndex(name string) (int, bool) {
	for i, n := range TraitNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// #endregion helpers

// Package privinput fixes the order and framing of the private inputs that cross
// into the prover: parent A, parent B, child (12 bytes each) followed by the two
// parent IDs (8 bytes each, little-endian).
package privinput

import (
	"encoding/binary"
	"fmt"

	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
)

// #region constants
const (
	IDSize = 8

	// StreamSize is the total length of a marshalled input stream.
	StreamSize = 3*dna.EncodedSize + 2*IDSize
)

// ErrProtocol reports a misaligned or incomplete input stream. The executing side
// cannot recover from it.
var ErrProtocol = fmt.Errorf("private input protocol: %w", dna.ErrMalformedRecord)

// #endregion constants

// #region inputs
// Inputs is the full private input set of one breeding proof.
type Inputs struct {
	ParentA   dna.TraitVector
	ParentB   dna.TraitVector
	Child     dna.TraitVector
	ParentAID uint64
	ParentBID uint64
}

// #endregion inputs

// #region writer
// Frames returns the inputs as separate fixed-size buffers in protocol order.
func Frames(in Inputs) [][]byte {
	a := dna.Encode(in.ParentA)
	b := dna.Encode(in.ParentB)
	c := dna.Encode(in.Child)
	return [][]byte{a[:], b[:], c[:], encodeID(in.ParentAID), encodeID(in.ParentBID)}
}

// Marshal concatenates Frames into a single StreamSize-byte buffer.
func Marshal(in Inputs) []byte {
	buf := make([]byte, 0, StreamSize)
	for _, f := range Frames(in) {
		buf = append(buf, f...)
	}
	return buf
}

func encodeID(id uint64) []byte {
	b := make([]byte, IDSize)
	binary.LittleEndian.PutUint64(b, id)
	return b
}

// #endregion writer

// #region reader
// Reader consumes a marshalled stream frame by frame on the executing side.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps a stream produced by Marshal.
func NewReader(stream []byte) *Reader {
	return &Reader{buf: stream}
}

func (r *Reader) next(n int, what string) ([]byte, error) {
	if len(r.buf)-r.off < n {
		return nil, fmt.Errorf("read %s at offset %d: need %d bytes, have %d: %w",
			what, r.off, n, len(r.buf)-r.off, ErrProtocol)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// ReadTraitVector reads the next 12-byte trait vector frame.
func (r *Reader) ReadTraitVector() (dna.TraitVector, error) {
	b, err := r.next(dna.EncodedSize, "trait vector")
	if err != nil {
		return dna.TraitVector{}, err
	}
	return dna.Decode([dna.EncodedSize]byte(b)), nil
}

// ReadID reads the next 8-byte parent ID frame.
func (r *Reader) ReadID() (uint64, error) {
	b, err := r.next(IDSize, "parent id")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

// ReadAll reads every frame in protocol order and requires the stream to end
// exactly after the last one.
func (r *Reader) ReadAll() (Inputs, error) {
	var in Inputs
	var err error

	if in.ParentA, err = r.ReadTraitVector(); err != nil {
		return Inputs{}, fmt.Errorf("parent a: %w", err)
	}
	if in.ParentB, err = r.ReadTraitVector(); err != nil {
		return Inputs{}, fmt.Errorf("parent b: %w", err)
	}
	if in.Child, err = r.ReadTraitVector(); err != nil {
		return Inputs{}, fmt.Errorf("child: %w", err)
	}
	if in.ParentAID, err = r.ReadID(); err != nil {
		return Inputs{}, fmt.Errorf("parent a id: %w", err)
	}
	if in.ParentBID, err = r.ReadID(); err != nil {
		return Inputs{}, fmt.Errorf("parent b id: %w", err)
	}
	if n := r.Remaining(); n != 0 {
		return Inputs{}, fmt.Errorf("%d trailing bytes: %w", n, ErrProtocol)
	}
	return in, nil
}

// Unmarshal is shorthand for NewReader(stream).ReadAll().
func Unmarshal(stream []byte) (Inputs, error) {
	return NewReader(stream).ReadAll()
}

// #endregion reader

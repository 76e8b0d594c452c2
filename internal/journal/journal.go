package journal

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/danielpatrickdp/breeding-verifier/internal/commitment"
	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
)

// #region layout
const (
	offCommitment = 0
	offValid      = offCommitment + commitment.Size
	offParentA    = offValid + 1
	offParentB    = offParentA + 8
	offGeneration = offParentB + 8
	offMutations  = offGeneration + 4

	// Size is the encoded length of a Record.
	Size = offMutations + 1
)

// ErrTruncatedRecord is returned when a public record is shorter than Size.
var ErrTruncatedRecord = fmt.Errorf("public record: %w", dna.ErrMalformedRecord)

// #endregion layout

// #region record
// Record is everything the pipeline discloses. Raw traits never appear here.
type Record struct {
	Commitment      [commitment.Size]byte
	IsValid         bool
	ParentAID       uint64
	ParentBID       uint64
	ChildGeneration uint32
	MutationCount   uint8
}

// CommitmentHex renders the commitment with a 0x prefix.
func (r Record) CommitmentHex() string {
	return "0x" + hex.EncodeToString(r.Commitment[:])
}

// #endregion record

// #region codec
// Encode packs r into its fixed 54-byte layout. True is always written as 0x01.
func Encode(r Record) [Size]byte {
	var buf [Size]byte
	copy(buf[offCommitment:offValid], r.Commitment[:])
	if r.IsValid {
		buf[offValid] = 1
	}
	binary.LittleEndian.PutUint64(buf[offParentA:], r.ParentAID)
	binary.LittleEndian.PutUint64(buf[offParentB:], r.ParentBID)
	binary.LittleEndian.PutUint32(buf[offGeneration:], r.ChildGeneration)
	buf[offMutations] = r.MutationCount
	return buf
}

// Decode unpacks a record. Bytes past Size are ignored so the layout can grow.
func Decode(b []byte) (Record, error) {
	if len(b) < Size {
		return Record{}, fmt.Errorf("decode %d bytes: %w", len(b), ErrTruncatedRecord)
	}
	var r Record
	copy(r.Commitment[:], b[offCommitment:offValid])
	r.IsValid = b[offValid] != 0
	r.ParentAID = binary.LittleEndian.Uint64(b[offParentA:])
	r.ParentBID = binary.LittleEndian.Uint64(b[offParentB:])
	r.ChildGeneration = binary.LittleEndian.Uint32(b[offGeneration:])
	r.MutationCount = b[offMutations]
	return r, nil
}

// DecodeHex accepts the 0x-prefixed hex form used by the HTTP API and CLI.
func DecodeHex(s string) (Record, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Record{}, fmt.Errorf("decode hex: %w", err)
	}
	return Decode(b)
}

// #endregion codec

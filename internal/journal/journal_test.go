package journal

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/breeding-verifier/internal/commitment"
	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
)

func sampleRecord() Record {
	return Record{
		Commitment:      commitment.Compute([dna.NumTraits]uint8{88, 82, 78, 84, 62, 84, 83, 72}, 1),
		IsValid:         true,
		ParentAID:       1,
		ParentBID:       2,
		ChildGeneration: 1,
		MutationCount:   0,
	}
}

func TestSizeIs54(t *testing.T) {
	if Size != 54 {
		t.Fatalf("expected 54-byte record, got %d", Size)
	}
}

func TestEncodeOffsets(t *testing.T) {
	r := Record{
		IsValid:         true,
		ParentAID:       0x0102030405060708,
		ParentBID:       math.MaxUint64,
		ChildGeneration: 0xAABBCCDD,
		MutationCount:   7,
	}
	for i := range r.Commitment {
		r.Commitment[i] = byte(i + 1)
	}
	b := Encode(r)

	if b[0] != 1 || b[31] != 32 {
		t.Errorf("commitment not at offset 0: %v", b[:32])
	}
	if b[32] != 0x01 {
		t.Errorf("validity byte: expected 0x01, got %#x", b[32])
	}
	if got := binary.LittleEndian.Uint64(b[33:41]); got != r.ParentAID {
		t.Errorf("parent A: expected %#x, got %#x", r.ParentAID, got)
	}
	if b[33] != 0x08 {
		t.Errorf("parent A not little-endian: first byte %#x", b[33])
	}
	if got := binary.LittleEndian.Uint64(b[41:49]); got != r.ParentBID {
		t.Errorf("parent B: expected %#x, got %#x", r.ParentBID, got)
	}
	if got := binary.LittleEndian.Uint32(b[49:53]); got != r.ChildGeneration {
		t.Errorf("generation: expected %#x, got %#x", r.ChildGeneration, got)
	}
	if b[53] != 7 {
		t.Errorf("mutation count: expected 7, got %d", b[53])
	}
}

func TestEncodeFalse(t *testing.T) {
	r := sampleRecord()
	r.IsValid = false
	if b := Encode(r); b[32] != 0 {
		t.Errorf("expected 0x00 for false, got %#x", b[32])
	}
}

func TestRoundTrip(t *testing.T) {
	records := []Record{
		sampleRecord(),
		{},
		{IsValid: false, ParentAID: math.MaxUint64, ParentBID: 0, ChildGeneration: math.MaxUint32, MutationCount: 8},
	}
	for _, r := range records {
		b := Encode(r)
		got, err := Decode(b[:])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(r, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeTruncated(t *testing.T) {
	b := Encode(sampleRecord())
	_, err := Decode(b[:Size-1])
	if err == nil {
		t.Fatal("expected error for 53-byte buffer")
	}
	if !errors.Is(err, ErrTruncatedRecord) {
		t.Errorf("expected ErrTruncatedRecord, got %v", err)
	}
	if !errors.Is(err, dna.ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord in chain, got %v", err)
	}

	if _, err := Decode(nil); !errors.Is(err, ErrTruncatedRecord) {
		t.Errorf("expected ErrTruncatedRecord for nil, got %v", err)
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	r := sampleRecord()
	b := Encode(r)
	ext := append(b[:], 0xFF, 0xEE, 0xDD)
	got, err := Decode(ext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != r {
		t.Errorf("trailing bytes changed the record: %+v", got)
	}
}

func TestDecodeNonzeroValidity(t *testing.T) {
	b := Encode(sampleRecord())
	b[32] = 0x7F
	got, err := Decode(b[:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsValid {
		t.Error("any nonzero validity byte should decode as true")
	}
}

func TestDecodeHex(t *testing.T) {
	r := sampleRecord()
	b := Encode(r)
	const hexDigits = "0123456789abcdef"
	s := make([]byte, 0, 2+2*len(b))
	s = append(s, '0', 'x')
	for _, c := range b {
		s = append(s, hexDigits[c>>4], hexDigits[c&0x0f])
	}

	got, err := DecodeHex(string(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != r {
		t.Errorf("expected %+v, got %+v", r, got)
	}

	if _, err := DecodeHex("0xzz"); err == nil {
		t.Error("expected error for invalid hex")
	}
	if _, err := DecodeHex("0x00"); !errors.Is(err, ErrTruncatedRecord) {
		t.Errorf("expected ErrTruncatedRecord for short hex, got %v", err)
	}
}

func TestCommitmentHex(t *testing.T) {
	r := Record{}
	r.Commitment[0] = 0xAB
	h := r.CommitmentHex()
	if len(h) != 2+64 || h[:4] != "0xab" {
		t.Errorf("unexpected hex %q", h)
	}
}

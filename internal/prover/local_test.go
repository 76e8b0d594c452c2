package prover

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielpatrickdp/breeding-verifier/internal/commitment"
	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
	"github.com/danielpatrickdp/breeding-verifier/internal/privinput"
)

// #region helpers
func scenarioStream() []byte {
	return privinput.Marshal(privinput.Inputs{
		ParentA:   dna.TraitVector{Traits: [dna.NumTraits]uint8{85, 78, 72, 80, 60, 75, 82, 70}},
		ParentB:   dna.TraitVector{Traits: [dna.NumTraits]uint8{92, 87, 85, 88, 65, 94, 85, 75}},
		Child:     dna.TraitVector{Traits: [dna.NumTraits]uint8{88, 82, 78, 84, 62, 84, 83, 72}, Generation: 1},
		ParentAID: 1,
		ParentBID: 2,
	})
}

// #endregion helpers

func TestLocalExecute_Success(t *testing.T) {
	l := NewLocal(nil, nil)
	l.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	rcpt, err := l.Execute(context.Background(), scenarioStream())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := journal.Decode(rcpt.Journal)
	if err != nil {
		t.Fatalf("decode journal: %v", err)
	}
	if !rec.IsValid {
		t.Error("expected valid record")
	}

	seal, err := ParseMockSeal(rcpt.Seal)
	if err != nil {
		t.Fatalf("parse seal: %v", err)
	}
	if seal.JournalDigest != JournalDigest(rcpt.Journal) {
		t.Error("seal does not bind the journal")
	}
	if seal.ImageID != l.ImageID() {
		t.Errorf("expected image id %s, got %s", l.ImageID(), seal.ImageID)
	}
	if seal.CreatedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("unexpected created_at %q", seal.CreatedAt)
	}
	if seal.ReceiptID == "" {
		t.Error("expected a receipt id")
	}
}

func TestLocalExecute_DeterministicJournal(t *testing.T) {
	l := NewLocal(commitment.Mixing, nil)
	a, err := l.Execute(context.Background(), scenarioStream())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := l.Execute(context.Background(), scenarioStream())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(a.Journal) != string(b.Journal) {
		t.Error("journals differ between runs")
	}
}

func TestLocalExecute_MalformedInput(t *testing.T) {
	l := NewLocal(nil, nil)
	_, err := l.Execute(context.Background(), []byte{1, 2, 3})
	if !errors.Is(err, ErrBackend) {
		t.Errorf("expected ErrBackend, got %v", err)
	}
	if !errors.Is(err, privinput.ErrProtocol) {
		t.Errorf("expected ErrProtocol in chain, got %v", err)
	}
}

func TestLocalExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal(nil, nil).Execute(ctx, scenarioStream())
	if !errors.Is(err, ErrBackend) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected ErrBackend wrapping context.Canceled, got %v", err)
	}
}

func TestParseMockSeal_Rejects(t *testing.T) {
	if _, err := ParseMockSeal([]byte("not json")); err == nil {
		t.Error("expected error for invalid json")
	}
	if _, err := ParseMockSeal([]byte(`{"type":"groth16"}`)); err == nil {
		t.Error("expected error for non-mock seal type")
	}
}

func TestBackendFunc(t *testing.T) {
	called := false
	var b Backend = BackendFunc(func(_ context.Context, in []byte) (Receipt, error) {
		called = true
		return Receipt{Journal: in}, nil
	})
	rcpt, err := b.Execute(context.Background(), []byte{9})
	if err != nil || !called || rcpt.Journal[0] != 9 {
		t.Errorf("BackendFunc did not forward: %v %v %v", called, rcpt, err)
	}
}

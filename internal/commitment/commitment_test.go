package commitment

import (
	"testing"

	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
)

var refChild = [dna.NumTraits]uint8{88, 82, 78, 84, 62, 84, 83, 72}

func TestComputeReferenceVector(t *testing.T) {
	want := [Size]byte{
		88, 82, 78, 84, 62, 84, 83, 72,
		88, 95, 104, 123, 114, 149, 161, 163,
		104, 144, 190, 72, 170, 240, 55, 240,
		89, 82, 78, 84, 62, 84, 83, 72,
	}
	got := Compute(refChild, 1)
	if got != want {
		t.Fatalf("digest mismatch:\nwant %v\ngot  %v", want, got)
	}
}

func TestComputeGenerationWindows(t *testing.T) {
	got := Compute([dna.NumTraits]uint8{}, 0x12345678)
	want := []byte{0x78, 0x67, 0x56, 0x45, 0x34, 0x23, 0x12, 0x01}
	for i, w := range want {
		if got[24+i] != w {
			t.Errorf("byte %d: expected %#x, got %#x", 24+i, w, got[24+i])
		}
	}
}

func TestComputeWraps(t *testing.T) {
	traits := [dna.NumTraits]uint8{255, 255, 255, 255, 255, 255, 255, 255}
	got := Compute(traits, 0)
	// 255 + 7*13 = 346 -> 90
	if got[15] != 90 {
		t.Errorf("expected wrapped add 90, got %d", got[15])
	}
	// 255 * 14 = 3570 -> 242
	if got[23] != 242 {
		t.Errorf("expected wrapped mul 242, got %d", got[23])
	}
}

func TestComputeSensitiveToEveryTrait(t *testing.T) {
	base := Compute(refChild, 1)
	for i := range refChild {
		mod := refChild
		mod[i]++
		if Compute(mod, 1) == base {
			t.Errorf("changing trait %d did not change the digest", i)
		}
	}
}

func TestComputeSensitiveToEveryGenerationBit(t *testing.T) {
	base := Compute(refChild, 0)
	for bit := 0; bit < 32; bit++ {
		if Compute(refChild, 1<<bit) == base {
			t.Errorf("flipping generation bit %d did not change the digest", bit)
		}
	}
}

func TestDeterminism(t *testing.T) {
	a := Compute(refChild, 42)
	for i := 0; i < 50; i++ {
		if Compute(refChild, 42) != a {
			t.Fatal("non-deterministic output")
		}
	}
}

func TestSchemes(t *testing.T) {
	if Mixing.Commit(refChild, 1) != Compute(refChild, 1) {
		t.Error("Mixing must match Compute")
	}
	h1 := SHA256.Commit(refChild, 1)
	h2 := SHA256.Commit(refChild, 2)
	if h1 == h2 {
		t.Error("sha256 digest should depend on generation")
	}
	if h1 == Compute(refChild, 1) {
		t.Error("sha256 digest should differ from mixing digest")
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]Scheme{"": Mixing, "mixing": Mixing, "sha256": SHA256} {
		got, err := ByName(name)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", name, err)
		}
		if got.Name() != want.Name() {
			t.Errorf("%q: expected %s, got %s", name, want.Name(), got.Name())
		}
	}
	if _, err := ByName("blake3"); err == nil {
		t.Error("expected error for unknown scheme")
	}
}

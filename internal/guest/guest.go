// Package guest is the fixed program a prover backend executes: it reads the
// private inputs, checks the breeding rules, commits to the child and emits the
// public record. Nothing else leaves it.
package guest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/danielpatrickdp/breeding-verifier/internal/breeding"
	"github.com/danielpatrickdp/breeding-verifier/internal/commitment"
	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
	"github.com/danielpatrickdp/breeding-verifier/internal/privinput"
)

// Version identifies the guest program logic. Bump it whenever Run changes
// observable output.
const Version = "breeding-verifier/v3"

// #region run
// Run executes the pipeline over a marshalled private input stream.
// A nil scheme selects the reference mixing commitment.
func Run(stream []byte, scheme commitment.Scheme) ([]byte, error) {
	in, err := privinput.Unmarshal(stream)
	if err != nil {
		return nil, fmt.Errorf("guest read inputs: %w", err)
	}
	rec := Evaluate(in, scheme)
	out := journal.Encode(rec)
	return out[:], nil
}

// Evaluate is Run without the framing, for callers that already hold decoded inputs.
func Evaluate(in privinput.Inputs, scheme commitment.Scheme) journal.Record {
	if scheme == nil {
		scheme = commitment.Mixing
	}
	res := breeding.Validate(in.ParentA, in.ParentB, in.Child)
	return journal.Record{
		Commitment:      scheme.Commit(in.Child.Traits, in.Child.Generation),
		IsValid:         res.IsValid,
		ParentAID:       in.ParentAID,
		ParentBID:       in.ParentBID,
		ChildGeneration: in.Child.Generation,
		MutationCount:   res.MutationCount,
	}
}

// #endregion run

// #region image-id
// ImageID names the exact program (version + commitment scheme) a seal attests to.
func ImageID(scheme commitment.Scheme) string {
	if scheme == nil {
		scheme = commitment.Mixing
	}
	sum := sha256.Sum256([]byte(Version + "/" + scheme.Name()))
	return hex.EncodeToString(sum[:])
}

// #endregion image-id

package host

import (
	"errors"

	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
	"github.com/danielpatrickdp/breeding-verifier/internal/privinput"
)

// ErrJournalMismatch is returned by Verify when re-execution disagrees with a proof.
var ErrJournalMismatch = errors.New("journal does not match re-execution")

// ErrSealMismatch is returned by Verify when a mock seal binds a different journal.
var ErrSealMismatch = errors.New("seal does not bind journal")

// #region request
// Request is one breeding claim: two parents, the child and the parent ids.
type Request struct {
	ParentA   dna.TraitVector
	ParentB   dna.TraitVector
	Child     dna.TraitVector
	ParentAID uint64
	ParentBID uint64
}

// Inputs converts r to the private input set sent to the backend.
func (r Request) Inputs() privinput.Inputs {
	return privinput.Inputs{
		ParentA:   r.ParentA,
		ParentB:   r.ParentB,
		Child:     r.Child,
		ParentAID: r.ParentAID,
		ParentBID: r.ParentBID,
	}
}

// #endregion request

// #region proof
// Proof is a decoded backend receipt. ID is set only when a Recorder stored it.
type Proof struct {
	ID      string
	Record  journal.Record
	Journal []byte
	Seal    []byte
}

// #endregion proof

// #region recorder
// Recorder persists proofs; *store.Store satisfies it.
type Recorder interface {
	SaveProof(rec journal.Record, jrnl, seal []byte) (string, error)
}

// #endregion recorder

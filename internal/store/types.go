package store

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
)

// ErrNotFound is returned when a proof id or commitment has no row.
var ErrNotFound = errors.New("proof not found")

// #region proof-row
// ProofRow is a stored proof. Record is decoded from Journal on read.
type ProofRow struct {
	ID        string
	Record    journal.Record
	Journal   []byte
	Seal      []byte
	CreatedAt time.Time
}

// #endregion proof-row

// #region proof-with-provenance
// ProofWithProvenance pairs a proof with its latest provenance row fields.
type ProofWithProvenance struct {
	ProofRow
	TriggerType string
	Decision    string
	Reason      string
}

// #endregion proof-with-provenance

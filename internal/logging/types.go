package logging

import "time"

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table. It records why a
// proof exists and what the pipeline decided, never the private traits.
type ProvenanceEntry struct {
	ProofID     string
	TriggerType string // one of the Trigger* constants
	RequestJSON string // public request metadata (ids, generation)
	Decision    string // "valid" | "invalid" | "error"
	Reason      string
	CreatedAt   time.Time
}

// #endregion provenance-entry

// #region decisions
const (
	TriggerAPI    = "api"
	TriggerCLI    = "cli"
	TriggerReplay = "replay"
)

const (
	DecisionValid   = "valid"
	DecisionInvalid = "invalid"
	DecisionError   = "error"
)

// DecisionFor maps a breeding outcome to its provenance decision.
func DecisionFor(valid bool) string {
	if valid {
		return DecisionValid
	}
	return DecisionInvalid
}

// #endregion decisions

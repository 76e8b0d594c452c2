package logging

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEntry is returned for a provenance entry with an unknown decision or
// no trigger.
var ErrInvalidEntry = errors.New("invalid provenance entry")

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// #region log-decision
// LogDecision appends entry to provenance_log. A zero CreatedAt is stamped now.
func LogDecision(db execer, entry ProvenanceEntry) error {
	if err := entry.validate(); err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if _, err := db.Exec(
		`INSERT INTO provenance_log (proof_id, trigger_type, request_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		optional(entry.ProofID),
		entry.TriggerType,
		optional(entry.RequestJSON),
		entry.Decision,
		optional(entry.Reason),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("log decision %s: %w", entry.ProofID, err)
	}
	return nil
}

func (e ProvenanceEntry) validate() error {
	if e.TriggerType == "" {
		return fmt.Errorf("%w: missing trigger", ErrInvalidEntry)
	}
	switch e.Decision {
	case DecisionValid, DecisionInvalid, DecisionError:
		return nil
	default:
		return fmt.Errorf("%w: decision %q", ErrInvalidEntry, e.Decision)
	}
}

// #endregion log-decision

// #region request-meta
// RequestMeta renders the public part of a breeding request for request_json.
// Trait values are never included.
func RequestMeta(parentAID, parentBID uint64, childGeneration uint32) string {
	b, _ := json.Marshal(struct {
		ParentAID       uint64 `json:"parentAId"`
		ParentBID       uint64 `json:"parentBId"`
		ChildGeneration uint32 `json:"childGeneration"`
	}{parentAID, parentBID, childGeneration})
	return string(b)
}

// #endregion request-meta

// #region helpers
// optional maps "" to SQL NULL.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers

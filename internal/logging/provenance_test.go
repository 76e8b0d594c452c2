package logging

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1) // each :memory: connection is its own database
	_, err = db.Exec(`CREATE TABLE provenance_log (
		proof_id     TEXT,
		trigger_type TEXT NOT NULL,
		request_json TEXT,
		decision     TEXT NOT NULL,
		reason       TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		ProofID:     "p1",
		TriggerType: "api",
		RequestJSON: `{"parent_a_id":1,"parent_b_id":2}`,
		Decision:    DecisionValid,
		Reason:      "mutations=0",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogDecision(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var proofID, decision string
	db.QueryRow("SELECT proof_id, decision FROM provenance_log").Scan(&proofID, &decision)
	if proofID != "p1" {
		t.Errorf("expected proof_id 'p1', got %q", proofID)
	}
	if decision != "valid" {
		t.Errorf("expected decision 'valid', got %q", decision)
	}
}

func TestLogDecision_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	err := LogDecision(db, ProvenanceEntry{TriggerType: "cli", Decision: DecisionInvalid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM provenance_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogDecision_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	err := LogDecision(db, ProvenanceEntry{
		TriggerType: "replay",
		Decision:    DecisionError,
		CreatedAt:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var proofID, requestJSON, reason sql.NullString
	db.QueryRow("SELECT proof_id, request_json, reason FROM provenance_log").Scan(&proofID, &requestJSON, &reason)
	if proofID.Valid {
		t.Error("expected NULL proof_id for empty string")
	}
	if requestJSON.Valid {
		t.Error("expected NULL request_json for empty string")
	}
	if reason.Valid {
		t.Error("expected NULL reason for empty string")
	}
}

func TestLogDecision_Error(t *testing.T) {
	db := setupDB(t)
	db.Close() // close to force error

	err := LogDecision(db, ProvenanceEntry{TriggerType: "api", Decision: DecisionValid})
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestLogDecision_InvalidEntry(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	for name, entry := range map[string]ProvenanceEntry{
		"no trigger":       {Decision: DecisionValid},
		"unknown decision": {TriggerType: TriggerAPI, Decision: "commit"},
	} {
		if err := LogDecision(db, entry); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("%s: expected ErrInvalidEntry, got %v", name, err)
		}
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 0 {
		t.Errorf("expected no rows, got %d", count)
	}
}

func TestLogDecision_InTransaction(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := LogDecision(tx, ProvenanceEntry{TriggerType: TriggerReplay, Decision: DecisionValid}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 0 {
		t.Errorf("expected rollback to discard the row, got %d", count)
	}
}

// #endregion log-decision-tests

// #region helper-tests
func TestOptional(t *testing.T) {
	if optional("") != nil {
		t.Error("expected nil for empty string")
	}
	if optional("hello") != "hello" {
		t.Error("expected 'hello'")
	}
}

func TestRequestMeta(t *testing.T) {
	got := RequestMeta(7, 9, 3)
	want := `{"parentAId":7,"parentBId":9,"childGeneration":3}`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestDecisionFor(t *testing.T) {
	if DecisionFor(true) != DecisionValid || DecisionFor(false) != DecisionInvalid {
		t.Error("unexpected decision mapping")
	}
}

// #endregion helper-tests

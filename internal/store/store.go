package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
	"github.com/danielpatrickdp/breeding-verifier/internal/logging"
)

// #region schema
// Parent ids are stored as decimal text: SQLite integers are signed.
const schema = `
CREATE TABLE IF NOT EXISTS proofs (
	proof_id         TEXT PRIMARY KEY,
	parent_a_id      TEXT NOT NULL,
	parent_b_id      TEXT NOT NULL,
	commitment       TEXT NOT NULL,
	is_valid         INTEGER NOT NULL,
	child_generation INTEGER NOT NULL,
	mutation_count   INTEGER NOT NULL,
	journal          BLOB NOT NULL,
	seal             BLOB,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_proofs_commitment ON proofs(commitment);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	proof_id      TEXT,
	trigger_type  TEXT NOT NULL,
	request_json  TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (proof_id) REFERENCES proofs(proof_id)
);
`

// timeLayout is fixed width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// #endregion schema

// #region store-struct
// Store is the SQLite proof ledger.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection so the per-connection pragmas below always apply
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region save-proof
// SaveProof stores a decoded proof and returns its new id.
func (s *Store) SaveProof(rec journal.Record, jrnl, seal []byte) (string, error) {
	id := uuid.New().String()
	valid := 0
	if rec.IsValid {
		valid = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO proofs (proof_id, parent_a_id, parent_b_id, commitment, is_valid,
		                     child_generation, mutation_count, journal, seal, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		strconv.FormatUint(rec.ParentAID, 10),
		strconv.FormatUint(rec.ParentBID, 10),
		rec.CommitmentHex(),
		valid,
		int64(rec.ChildGeneration),
		int(rec.MutationCount),
		jrnl,
		seal,
		s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("insert proof: %w", err)
	}
	return id, nil
}

// LogDecision appends a provenance row for a proof.
func (s *Store) LogDecision(entry logging.ProvenanceEntry) error {
	return logging.LogDecision(s.db, entry)
}

// #endregion save-proof

// #region get-proof
// GetProof retrieves a proof by id.
func (s *Store) GetProof(id string) (ProofRow, error) {
	row := s.db.QueryRow(
		`SELECT proof_id, journal, seal, created_at FROM proofs WHERE proof_id = ?`, id,
	)
	p, err := scanProof(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ProofRow{}, fmt.Errorf("get proof %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return ProofRow{}, fmt.Errorf("get proof %s: %w", id, err)
	}
	return p, nil
}

// FindByCommitment returns every proof disclosing the given 0x-prefixed commitment,
// newest first.
func (s *Store) FindByCommitment(commitmentHex string) ([]ProofRow, error) {
	rows, err := s.db.Query(
		`SELECT proof_id, journal, seal, created_at FROM proofs
		 WHERE commitment = ? ORDER BY created_at DESC, rowid DESC`, commitmentHex,
	)
	if err != nil {
		return nil, fmt.Errorf("find by commitment: %w", err)
	}
	defer rows.Close()

	var out []ProofRow
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("find by commitment %s: %w", commitmentHex, ErrNotFound)
	}
	return out, nil
}

// #endregion get-proof

// #region list-proofs
// ListProofs returns the most recent proofs.
func (s *Store) ListProofs(limit int) ([]ProofRow, error) {
	rows, err := s.db.Query(
		`SELECT proof_id, journal, seal, created_at FROM proofs
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	defer rows.Close()

	var out []ProofRow
	for rows.Next() {
		p, err := scanProof(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListProofsWithProvenance returns recent proofs joined with their latest
// provenance row, if any.
func (s *Store) ListProofsWithProvenance(limit int) ([]ProofWithProvenance, error) {
	rows, err := s.db.Query(
		`SELECT p.proof_id, p.journal, p.seal, p.created_at,
		        l.trigger_type, l.decision, l.reason
		 FROM proofs p
		 LEFT JOIN provenance_log l ON l.id = (
		     SELECT MAX(id) FROM provenance_log WHERE proof_id = p.proof_id
		 )
		 ORDER BY p.created_at DESC, p.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list proofs with provenance: %w", err)
	}
	defer rows.Close()

	var out []ProofWithProvenance
	for rows.Next() {
		var pw ProofWithProvenance
		var createdStr string
		var trigger, decision, reason sql.NullString
		if err := rows.Scan(&pw.ID, &pw.Journal, &pw.Seal, &createdStr, &trigger, &decision, &reason); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := fillProof(&pw.ProofRow, createdStr); err != nil {
			return nil, err
		}
		pw.TriggerType = trigger.String
		pw.Decision = decision.String
		pw.Reason = reason.String
		out = append(out, pw)
	}
	return out, rows.Err()
}

// #endregion list-proofs

// #region scanning
type scanner interface {
	Scan(dest ...any) error
}

func scanProof(sc scanner) (ProofRow, error) {
	var p ProofRow
	var createdStr string
	if err := sc.Scan(&p.ID, &p.Journal, &p.Seal, &createdStr); err != nil {
		return ProofRow{}, err
	}
	if err := fillProof(&p, createdStr); err != nil {
		return ProofRow{}, err
	}
	return p, nil
}

func fillProof(p *ProofRow, createdStr string) error {
	rec, err := journal.Decode(p.Journal)
	if err != nil {
		return fmt.Errorf("proof %s: %w", p.ID, err)
	}
	p.Record = rec
	p.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	return nil
}

// #endregion scanning

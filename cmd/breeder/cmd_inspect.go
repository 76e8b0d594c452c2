package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/breeding-verifier/internal/host"
	"github.com/danielpatrickdp/breeding-verifier/internal/store"
)

var (
	inspectLast       int
	inspectID         string
	inspectCommitment string
	inspectJSON       bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List or show proofs in the ledger",
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.IntVar(&inspectLast, "last", 20, "show N most recent proofs")
	f.StringVar(&inspectID, "id", "", "show a single proof")
	f.StringVar(&inspectCommitment, "commitment", "", "show proofs for a child commitment (0x hex)")
	f.BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
}

// #region main

func runInspect(cmd *cobra.Command, args []string) error {
	if cfg.DB.Path == "" {
		return fmt.Errorf("inspect: no ledger configured (set --db or db.path)")
	}
	ledger, err := store.NewStore(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer ledger.Close()

	w := cmd.OutOrStdout()
	switch {
	case inspectID != "":
		return runDetailMode(w, ledger, inspectID)
	case inspectCommitment != "":
		return runCommitmentMode(w, ledger, inspectCommitment)
	default:
		return runListMode(w, ledger, inspectLast)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	ProofID    string `json:"proof_id"`
	Commitment string `json:"commitment"`
	Valid      bool   `json:"valid"`
	Parents    string `json:"parents"`
	Generation uint32 `json:"generation"`
	Mutations  uint8  `json:"mutations"`
	Trigger    string `json:"trigger,omitempty"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func runListMode(w io.Writer, ledger *store.Store, last int) error {
	proofs, err := ledger.ListProofsWithProvenance(last)
	if err != nil {
		return err
	}
	if len(proofs) == 0 {
		fmt.Fprintln(w, "no proofs found")
		return nil
	}

	// store returns DESC, reverse for chronological
	rows := make([]listRow, len(proofs))
	for i, p := range proofs {
		rows[len(proofs)-1-i] = listRow{
			ProofID:    p.ID,
			Commitment: p.Record.CommitmentHex(),
			Valid:      p.Record.IsValid,
			Parents:    fmt.Sprintf("%d,%d", p.Record.ParentAID, p.Record.ParentBID),
			Generation: p.Record.ChildGeneration,
			Mutations:  p.Record.MutationCount,
			Trigger:    p.TriggerType,
			Reason:     p.Reason,
			CreatedAt:  p.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if inspectJSON {
		return printJSON(w, rows)
	}
	printListTable(w, rows)
	return nil
}

func printListTable(w io.Writer, rows []listRow) {
	fmt.Fprintf(w, "%-12s  %-12s  %-5s  %-10s  %4s  %3s  %-7s  %s\n",
		"Proof", "Commitment", "Valid", "Parents", "Gen", "Mut", "Trigger", "Time")
	fmt.Fprintf(w, "%-12s+-%-12s+-%-5s+-%-10s+-%4s+-%3s+-%-7s+-%s\n",
		"------------", "------------", "-----", "----------", "----", "---", "-------", "--------------------")
	for _, r := range rows {
		trigger := r.Trigger
		if trigger == "" {
			trigger = "-"
		}
		fmt.Fprintf(w, "%-12s  %-12s  %-5t  %-10s  %4d  %3d  %-7s  %s\n",
			shortID(r.ProofID), shortID(r.Commitment), r.Valid, r.Parents, r.Generation, r.Mutations, trigger, r.CreatedAt)
	}
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(w io.Writer, ledger *store.Store, id string) error {
	row, err := ledger.GetProof(id)
	if err != nil {
		return err
	}
	if !inspectJSON {
		fmt.Fprintf(w, "Created:    %s\n", row.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return printProof(w, host.Proof{ID: row.ID, Record: row.Record, Journal: row.Journal, Seal: row.Seal}, inspectJSON)
}

func runCommitmentMode(w io.Writer, ledger *store.Store, commitmentHex string) error {
	rows, err := ledger.FindByCommitment(commitmentHex)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i > 0 && !inspectJSON {
			fmt.Fprintln(w)
		}
		if err := printProof(w, host.Proof{ID: row.ID, Record: row.Record, Journal: row.Journal, Seal: row.Seal}, inspectJSON); err != nil {
			return err
		}
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion helpers

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/breeding-verifier/internal/fixture"
	"github.com/danielpatrickdp/breeding-verifier/internal/host"
	"github.com/danielpatrickdp/breeding-verifier/internal/logging"
	"github.com/danielpatrickdp/breeding-verifier/internal/store"
)

var (
	replayConcurrency int
	replayDeterminism bool
	replayJSON        bool
	replayRecord      bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <fixtures.yaml>",
	Short: "Replay scenario fixtures and compare outcomes",
	Long: `Runs every scenario in a YAML fixture through the configured prover and
checks validity, mutation count and (when given) the commitment. Exits non-zero
when any scenario fails or errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().IntVar(&replayConcurrency, "concurrency", 4, "scenarios proved in parallel")
	replayCmd.Flags().BoolVar(&replayDeterminism, "determinism", false, "replay twice and require identical journals")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "output as JSON")
	replayCmd.Flags().BoolVar(&replayRecord, "record", false, "store replayed proofs in the ledger")
}

// #region replay

type replayRow struct {
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	Valid      bool     `json:"valid"`
	Mutations  uint8    `json:"mutations"`
	Commitment string   `json:"commitment,omitempty"`
	Failures   []string `json:"failures,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := fixture.Load(args[0])
	if err != nil {
		return err
	}

	backend, scheme, release, err := openBackend()
	if err != nil {
		return err
	}
	defer release()
	base := []host.Option{host.WithLogger(logger), host.WithScheme(scheme)}
	opts := base

	var ledger *store.Store
	if replayRecord {
		if ledger, err = openLedger(); err != nil {
			return err
		}
	}
	if ledger != nil {
		defer ledger.Close()
		opts = append(base[:len(base):len(base)], host.WithRecorder(ledger))
	}

	results, err := fixture.Replay(cmd.Context(), backend, f.Scenarios, replayConcurrency, opts...)
	if err != nil {
		return err
	}
	if ledger != nil {
		recordReplayProvenance(ledger, results)
	}
	// determinism runs are never recorded
	if replayDeterminism {
		if err := fixture.CheckDeterminism(cmd.Context(), backend, f.Scenarios, replayConcurrency, base...); err != nil {
			return err
		}
	}

	rows := make([]replayRow, len(results))
	for i, r := range results {
		rows[i] = replayRow{
			Name:     r.Name,
			Passed:   r.Passed(),
			Failures: r.Failures,
		}
		if r.Err != nil {
			rows[i].Error = r.Err.Error()
			continue
		}
		rows[i].Valid = r.Proof.Record.IsValid
		rows[i].Mutations = r.Proof.Record.MutationCount
		rows[i].Commitment = r.Proof.Record.CommitmentHex()
	}

	w := cmd.OutOrStdout()
	sum := fixture.Summarize(results)
	if replayJSON {
		if err := printJSON(w, rows); err != nil {
			return err
		}
	} else {
		printReplayTable(w, f.Description, rows, sum)
	}

	if sum.Failed > 0 || sum.Errors > 0 {
		return fmt.Errorf("replay: %d failed, %d errors of %d scenarios", sum.Failed, sum.Errors, sum.Total)
	}
	return nil
}

func recordReplayProvenance(ledger *store.Store, results []fixture.Result) {
	for _, r := range results {
		if r.Proof.ID == "" {
			continue
		}
		rec := r.Proof.Record
		reason := "expectations met"
		if !r.Passed() {
			reason = strings.Join(r.Failures, "; ")
		}
		err := ledger.LogDecision(logging.ProvenanceEntry{
			ProofID:     r.Proof.ID,
			TriggerType: logging.TriggerReplay,
			RequestJSON: logging.RequestMeta(rec.ParentAID, rec.ParentBID, rec.ChildGeneration),
			Decision:    logging.DecisionFor(rec.IsValid),
			Reason:      r.Name + ": " + reason,
		})
		if err != nil {
			logger.Warn("provenance log failed", zap.String("proof_id", r.Proof.ID), zap.Error(err))
		}
	}
}

func printReplayTable(w io.Writer, description string, rows []replayRow, sum fixture.Summary) {
	if description != "" {
		fmt.Fprintf(w, "%s\n\n", description)
	}
	fmt.Fprintf(w, "%-28s  %-6s  %-5s  %9s  %s\n", "Scenario", "Result", "Valid", "Mutations", "Detail")
	fmt.Fprintf(w, "%-28s+-%-6s+-%-5s+-%9s+-%s\n",
		"----------------------------", "------", "-----", "---------", "--------------------")
	for _, r := range rows {
		result := "PASS"
		detail := ""
		switch {
		case r.Error != "":
			result = "ERROR"
			detail = r.Error
		case !r.Passed:
			result = "FAIL"
			detail = fmt.Sprint(r.Failures)
		}
		fmt.Fprintf(w, "%-28s  %-6s  %-5t  %9d  %s\n", r.Name, result, r.Valid, r.Mutations, detail)
	}
	fmt.Fprintf(w, "\n%d scenarios: %d passed, %d failed, %d errors\n", sum.Total, sum.Passed, sum.Failed, sum.Errors)
}

// #endregion replay

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/breeding-verifier/internal/breeding"
	"github.com/danielpatrickdp/breeding-verifier/internal/dna"
	"github.com/danielpatrickdp/breeding-verifier/internal/host"
	"github.com/danielpatrickdp/breeding-verifier/internal/logging"
	"github.com/danielpatrickdp/breeding-verifier/internal/store"
)

// claimFlags holds the trait and id flags shared by prove and verify.
type claimFlags struct {
	parentA, parentB, child string
	genA, genB, genChild    uint32
	idA, idB                uint64
	jsonOut                 bool
}

var claim claimFlags

var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Prove a breeding claim and print the public record",
	Example: `  breeder prove --parent-a 85,78,72,80,60,75,82,70 --parent-b 92,87,85,88,65,94,85,75 \
    --child 88,82,78,84,62,84,83,72 --gen-child 1`,
	RunE: runProve,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Prove a claim, then re-execute locally and compare journals",
	RunE:  runVerify,
}

func init() {
	for _, c := range []*cobra.Command{proveCmd, verifyCmd} {
		f := c.Flags()
		f.StringVar(&claim.parentA, "parent-a", "", "parent A traits, 8 comma separated values")
		f.StringVar(&claim.parentB, "parent-b", "", "parent B traits")
		f.StringVar(&claim.child, "child", "", "child traits")
		f.Uint32Var(&claim.genA, "gen-a", 0, "parent A generation")
		f.Uint32Var(&claim.genB, "gen-b", 0, "parent B generation")
		f.Uint32Var(&claim.genChild, "gen-child", 1, "child generation")
		f.Uint64Var(&claim.idA, "id-a", 1, "parent A id")
		f.Uint64Var(&claim.idB, "id-b", 2, "parent B id")
		f.BoolVar(&claim.jsonOut, "json", false, "output as JSON")
		_ = c.MarkFlagRequired("parent-a")
		_ = c.MarkFlagRequired("parent-b")
		_ = c.MarkFlagRequired("child")
	}
}

// #region prove

func runProve(cmd *cobra.Command, args []string) error {
	req, err := claim.request()
	if err != nil {
		return err
	}

	backend, _, release, err := openBackend()
	if err != nil {
		return err
	}
	defer release()

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	opts := []host.Option{host.WithLogger(logger)}
	if ledger != nil {
		defer ledger.Close()
		opts = append(opts, host.WithRecorder(ledger))
	}

	proof, err := host.New(backend, opts...).Prove(cmd.Context(), req)
	if err != nil {
		return err
	}
	recordCLIProvenance(ledger, proof, req)
	return printProof(cmd.OutOrStdout(), proof, claim.jsonOut)
}

func runVerify(cmd *cobra.Command, args []string) error {
	req, err := claim.request()
	if err != nil {
		return err
	}

	backend, scheme, release, err := openBackend()
	if err != nil {
		return err
	}
	defer release()

	p := host.New(backend, host.WithLogger(logger), host.WithScheme(scheme))
	proof, err := p.Prove(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := p.Verify(proof, req); err != nil {
		return err
	}

	if err := printProof(cmd.OutOrStdout(), proof, claim.jsonOut); err != nil {
		return err
	}
	if !claim.jsonOut {
		fmt.Fprintln(cmd.OutOrStdout(), "\nverified: journal matches local re-execution")
	}
	return nil
}

// recordCLIProvenance notes a stored proof was produced from the command line.
func recordCLIProvenance(ledger *store.Store, proof host.Proof, req host.Request) {
	if ledger == nil || proof.ID == "" {
		return
	}
	err := ledger.LogDecision(logging.ProvenanceEntry{
		ProofID:     proof.ID,
		TriggerType: logging.TriggerCLI,
		RequestJSON: logging.RequestMeta(req.ParentAID, req.ParentBID, req.Child.Generation),
		Decision:    logging.DecisionFor(proof.Record.IsValid),
		Reason:      breeding.Explain(req.ParentA, req.ParentB, req.Child).Summary(),
	})
	if err != nil {
		logger.Warn("provenance log failed", zap.String("proof_id", proof.ID), zap.Error(err))
	}
}

// #endregion prove

// #region helpers

func (c claimFlags) request() (host.Request, error) {
	a, err := parseVector(c.parentA, c.genA)
	if err != nil {
		return host.Request{}, fmt.Errorf("--parent-a: %w", err)
	}
	b, err := parseVector(c.parentB, c.genB)
	if err != nil {
		return host.Request{}, fmt.Errorf("--parent-b: %w", err)
	}
	ch, err := parseVector(c.child, c.genChild)
	if err != nil {
		return host.Request{}, fmt.Errorf("--child: %w", err)
	}
	return host.Request{ParentA: a, ParentB: b, Child: ch, ParentAID: c.idA, ParentBID: c.idB}, nil
}

// parseVector reads "85,78,..." into a trait vector.
func parseVector(s string, gen uint32) (dna.TraitVector, error) {
	fields := strings.Split(s, ",")
	vals := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return dna.TraitVector{}, fmt.Errorf("parse trait %q: %w", f, err)
		}
		vals = append(vals, n)
	}
	return dna.FromInts(vals, gen)
}

type proofOutput struct {
	ID              string `json:"id,omitempty"`
	Commitment      string `json:"commitment"`
	IsValid         bool   `json:"is_valid"`
	ParentAID       uint64 `json:"parent_a_id"`
	ParentBID       uint64 `json:"parent_b_id"`
	ChildGeneration uint32 `json:"child_generation"`
	MutationCount   uint8  `json:"mutation_count"`
	Journal         string `json:"journal"`
	Seal            string `json:"seal,omitempty"`
}

func printProof(w io.Writer, p host.Proof, jsonOut bool) error {
	out := proofOutput{
		ID:              p.ID,
		Commitment:      p.Record.CommitmentHex(),
		IsValid:         p.Record.IsValid,
		ParentAID:       p.Record.ParentAID,
		ParentBID:       p.Record.ParentBID,
		ChildGeneration: p.Record.ChildGeneration,
		MutationCount:   p.Record.MutationCount,
		Journal:         "0x" + hex.EncodeToString(p.Journal),
	}
	if len(p.Seal) > 0 {
		out.Seal = "0x" + hex.EncodeToString(p.Seal)
	}
	if jsonOut {
		return printJSON(w, out)
	}

	if out.ID != "" {
		fmt.Fprintf(w, "Proof:      %s\n", out.ID)
	}
	fmt.Fprintf(w, "Commitment: %s\n", out.Commitment)
	fmt.Fprintf(w, "Valid:      %t\n", out.IsValid)
	fmt.Fprintf(w, "Parents:    %d, %d\n", out.ParentAID, out.ParentBID)
	fmt.Fprintf(w, "Generation: %d\n", out.ChildGeneration)
	fmt.Fprintf(w, "Mutations:  %d\n", out.MutationCount)
	fmt.Fprintf(w, "Journal:    %s\n", out.Journal)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers

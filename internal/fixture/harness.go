package fixture

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/breeding-verifier/internal/host"
	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
	"github.com/danielpatrickdp/breeding-verifier/internal/prover"
)

// #region types
// Result captures the outcome of replaying one scenario through a backend.
type Result struct {
	Name     string
	Proof    host.Proof
	Failures []string // expectation mismatches, empty when the scenario passed
	Err      error    // request or backend failure
}

// Passed reports whether the scenario ran and met every expectation.
func (r Result) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Total  int
	Passed int
	Failed int
	Errors int
}

// #endregion types

// #region replay
// Replay proves every scenario through backend with at most concurrency calls in
// flight. Results keep scenario order. A scenario failure never stops the run;
// the returned error is set only when ctx ends first.
func Replay(ctx context.Context, backend prover.Backend, scenarios []Scenario, concurrency int, opts ...host.Option) ([]Result, error) {
	p := host.New(backend, opts...)
	results := make([]Result, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i := range scenarios {
		s := &scenarios[i]
		g.Go(func() error {
			results[i] = run(gctx, p, s)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("replay: %w", err)
	}
	return results, nil
}

func run(ctx context.Context, p *host.Prover, s *Scenario) Result {
	res := Result{Name: s.Name}
	req, err := s.Request()
	if err != nil {
		res.Err = err
		return res
	}
	proof, err := p.Prove(ctx, req)
	if err != nil {
		res.Err = err
		return res
	}
	res.Proof = proof
	res.Failures = check(proof.Record, s.Expect)
	return res
}

func check(rec journal.Record, want Expect) []string {
	var out []string
	if rec.IsValid != want.Valid {
		out = append(out, fmt.Sprintf("valid: expected %t, got %t", want.Valid, rec.IsValid))
	}
	if want.Mutations != nil && rec.MutationCount != *want.Mutations {
		out = append(out, fmt.Sprintf("mutations: expected %d, got %d", *want.Mutations, rec.MutationCount))
	}
	if want.Commitment != "" && rec.CommitmentHex() != want.Commitment {
		out = append(out, fmt.Sprintf("commitment: expected %s, got %s", want.Commitment, rec.CommitmentHex()))
	}
	return out
}

// CheckDeterminism replays scenarios twice and fails on the first scenario whose
// journals differ between the runs.
func CheckDeterminism(ctx context.Context, backend prover.Backend, scenarios []Scenario, concurrency int, opts ...host.Option) error {
	first, err := Replay(ctx, backend, scenarios, concurrency, opts...)
	if err != nil {
		return err
	}
	second, err := Replay(ctx, backend, scenarios, concurrency, opts...)
	if err != nil {
		return err
	}
	for i := range first {
		if first[i].Err != nil || second[i].Err != nil {
			continue
		}
		if !bytes.Equal(first[i].Proof.Journal, second[i].Proof.Journal) {
			return fmt.Errorf("scenario %s: %w", first[i].Name, host.ErrJournalMismatch)
		}
	}
	return nil
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Errors++
		case r.Passed():
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

// #endregion replay

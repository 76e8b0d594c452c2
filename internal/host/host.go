package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/awnumar/memguard"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/breeding-verifier/internal/commitment"
	"github.com/danielpatrickdp/breeding-verifier/internal/guest"
	"github.com/danielpatrickdp/breeding-verifier/internal/journal"
	"github.com/danielpatrickdp/breeding-verifier/internal/privinput"
	"github.com/danielpatrickdp/breeding-verifier/internal/prover"
	"github.com/danielpatrickdp/breeding-verifier/internal/telemetry"
)

// #region prover
// Prover drives one backend on behalf of the host.
type Prover struct {
	backend  prover.Backend
	scheme   commitment.Scheme
	recorder Recorder
	log      *zap.Logger
	locked   bool
}

// Option configures a Prover.
type Option func(*Prover)

// WithRecorder stores every successful proof.
func WithRecorder(r Recorder) Option {
	return func(p *Prover) { p.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Prover) { p.log = log }
}

// WithScheme sets the commitment scheme Verify re-executes with. It must match
// the scheme the backend runs.
func WithScheme(s commitment.Scheme) Option {
	return func(p *Prover) { p.scheme = s }
}

// WithLockedMemory controls whether private inputs are staged in mlocked memory.
// On by default.
func WithLockedMemory(on bool) Option {
	return func(p *Prover) { p.locked = on }
}

// New creates a Prover for backend.
func New(backend prover.Backend, opts ...Option) *Prover {
	p := &Prover{
		backend: backend,
		scheme:  commitment.Mixing,
		log:     zap.NewNop(),
		locked:  true,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// #endregion prover

// #region prove
// Prove sends the request's private inputs to the backend and decodes the public
// record it returns. Backend failures are wrapped with prover.ErrBackend and are
// not retried.
func (p *Prover) Prove(ctx context.Context, req Request) (Proof, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "host.Prover.Prove")
	defer span.End()
	start := time.Now()
	defer func() { telemetry.ProveDuration.Observe(time.Since(start).Seconds()) }()

	stream, release := p.stage(req.Inputs())
	rcpt, err := p.backend.Execute(ctx, stream)
	release()
	if err != nil {
		telemetry.BackendErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend execute")
		p.log.Warn("backend execute failed", zap.Error(err))
		if !errors.Is(err, prover.ErrBackend) {
			err = fmt.Errorf("%w: %w", prover.ErrBackend, err)
		}
		return Proof{}, fmt.Errorf("prove: %w", err)
	}

	rec, err := journal.Decode(rcpt.Journal)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode journal")
		return Proof{}, fmt.Errorf("prove: %w", err)
	}

	proof := Proof{Record: rec, Journal: rcpt.Journal, Seal: rcpt.Seal}
	telemetry.ObserveProof(rec.IsValid, rec.MutationCount)
	span.SetAttributes(
		attribute.Bool("breeding.valid", rec.IsValid),
		attribute.Int("breeding.mutations", int(rec.MutationCount)),
		attribute.String("breeding.commitment", rec.CommitmentHex()),
	)

	if p.recorder != nil {
		id, err := p.recorder.SaveProof(rec, rcpt.Journal, rcpt.Seal)
		if err != nil {
			// the proof is still good; losing the ledger row is not fatal
			p.log.Error("record proof", zap.String("commitment", rec.CommitmentHex()), zap.Error(err))
		} else {
			proof.ID = id
		}
	}

	p.log.Info("proof produced",
		zap.String("proof_id", proof.ID),
		zap.Bool("valid", rec.IsValid),
		zap.Uint8("mutations", rec.MutationCount),
		zap.Uint64("parent_a_id", rec.ParentAID),
		zap.Uint64("parent_b_id", rec.ParentBID),
		zap.Uint32("child_generation", rec.ChildGeneration),
	)
	return proof, nil
}

// stage marshals the inputs, optionally into a locked buffer. release wipes them.
func (p *Prover) stage(in privinput.Inputs) ([]byte, func()) {
	stream := privinput.Marshal(in)
	if !p.locked {
		return stream, func() { clear(stream) }
	}
	buf := memguard.NewBufferFromBytes(stream)
	return buf.Bytes(), buf.Destroy
}

// #endregion prove

// #region verify
// Verify re-executes the guest locally over req and checks that proof carries the
// same journal. When the seal is a mock seal it must also bind that journal.
func (p *Prover) Verify(proof Proof, req Request) error {
	want, err := guest.Run(privinput.Marshal(req.Inputs()), p.scheme)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !bytes.Equal(want, proof.Journal) {
		return fmt.Errorf("verify: %w", ErrJournalMismatch)
	}
	rec, err := journal.Decode(proof.Journal)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if rec != proof.Record {
		return fmt.Errorf("verify: decoded record differs: %w", ErrJournalMismatch)
	}
	if seal, err := prover.ParseMockSeal(proof.Seal); err == nil {
		if seal.JournalDigest != prover.JournalDigest(proof.Journal) {
			return fmt.Errorf("verify: %w", ErrSealMismatch)
		}
	}
	return nil
}

// #endregion verify

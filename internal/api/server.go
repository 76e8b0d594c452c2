package api

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/breeding-verifier/internal/breeding"
	"github.com/danielpatrickdp/breeding-verifier/internal/host"
	"github.com/danielpatrickdp/breeding-verifier/internal/logging"
	"github.com/danielpatrickdp/breeding-verifier/internal/store"
	"github.com/danielpatrickdp/breeding-verifier/internal/telemetry"
)

// #region server
// Ledger is the slice of the proof store the API reads and annotates.
type Ledger interface {
	GetProof(id string) (store.ProofRow, error)
	LogDecision(entry logging.ProvenanceEntry) error
}

// Server serves the prove and lookup endpoints.
type Server struct {
	prover  *host.Prover
	ledger  Ledger
	log     *zap.Logger
	timeout time.Duration
}

// NewServer wires an HTTP server around p. ledger may be nil, in which case
// lookups return 404 and no provenance is written. A zero timeout disables the
// per-request deadline.
func NewServer(p *host.Prover, ledger Ledger, log *zap.Logger, timeout time.Duration) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{prover: p, ledger: ledger, log: log, timeout: timeout}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router(serviceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if serviceName != "" {
		r.Use(otelgin.Middleware(serviceName))
	}

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))
	r.POST("/api/zk/prove", s.handleProve)
	r.GET("/api/proofs/:id", s.handleGetProof)
	return r
}

// #endregion server

// #region handlers
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleProve(c *gin.Context) {
	var req ProveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.badRequest(c, err)
		return
	}
	hreq, err := req.HostRequest()
	if err != nil {
		s.badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	proof, err := s.prover.Prove(ctx, hreq)
	if err != nil {
		s.log.Error("prove request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to generate proof",
			Details: err.Error(),
		})
		return
	}

	s.recordProvenance(proof, hreq)
	c.JSON(http.StatusOK, proveResponse(proof))
}

func (s *Server) handleGetProof(c *gin.Context) {
	id := c.Param("id")
	if s.ledger == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "proof ledger disabled"})
		return
	}
	row, err := s.ledger.GetProof(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "proof not found", Details: id})
		return
	}
	if err != nil {
		s.log.Error("get proof", zap.String("proof_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, proofBody(host.Proof{
		ID:      row.ID,
		Record:  row.Record,
		Journal: row.Journal,
		Seal:    row.Seal,
	}))
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:    "Invalid input format",
		Details:  err.Error(),
		Expected: expectedShape,
	})
}

// #endregion handlers

// #region helpers
// recordProvenance notes why a stored proof exists. Only public request
// metadata is written.
func (s *Server) recordProvenance(proof host.Proof, req host.Request) {
	if s.ledger == nil || proof.ID == "" {
		return
	}
	entry := logging.ProvenanceEntry{
		ProofID:     proof.ID,
		TriggerType: logging.TriggerAPI,
		RequestJSON: logging.RequestMeta(req.ParentAID, req.ParentBID, req.Child.Generation),
		Decision:    logging.DecisionFor(proof.Record.IsValid),
		Reason:      breeding.Explain(req.ParentA, req.ParentB, req.Child).Summary(),
	}
	if err := s.ledger.LogDecision(entry); err != nil {
		s.log.Warn("provenance log failed", zap.String("proof_id", proof.ID), zap.Error(err))
	}
}

func proofBody(p host.Proof) ProofBody {
	return ProofBody{
		ID:              p.ID,
		Seal:            hex0x(p.Seal),
		Journal:         hex0x(p.Journal),
		Commitment:      p.Record.CommitmentHex(),
		IsValid:         p.Record.IsValid,
		ParentAID:       p.Record.ParentAID,
		ParentBID:       p.Record.ParentBID,
		ChildGeneration: p.Record.ChildGeneration,
		MutationCount:   p.Record.MutationCount,
	}
}

func proveResponse(p host.Proof) ProveResponse {
	return ProveResponse{
		Success: true,
		Proof:   proofBody(p),
		PublicOutputs: PublicOutputs{
			ChildCommitment: p.Record.CommitmentHex(),
			ParentIDs:       [2]uint64{p.Record.ParentAID, p.Record.ParentBID},
			Generation:      p.Record.ChildGeneration,
			BreedingValid:   p.Record.IsValid,
		},
		PrivateInputs: privateInputs,
	}
}

func hex0x(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// #endregion helpers

package prover

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/breeding-verifier/internal/commitment"
	"github.com/danielpatrickdp/breeding-verifier/internal/guest"
)

// #region mock-seal
// MockSealType labels seals produced without a real proving system.
const MockSealType = "groth16-mock"

// MockSeal is the artifact the Local backend attaches to a receipt. It binds the
// journal by digest but proves nothing cryptographically.
type MockSeal struct {
	Type          string `json:"type"`
	GuestVersion  string `json:"guest_version"`
	ImageID       string `json:"image_id"`
	ReceiptID     string `json:"receipt_id"`
	JournalDigest string `json:"journal_digest"`
	CreatedAt     string `json:"created_at"`
	Note          string `json:"note"`
}

// ParseMockSeal decodes a seal produced by Local.
func ParseMockSeal(seal []byte) (MockSeal, error) {
	var s MockSeal
	if err := json.Unmarshal(seal, &s); err != nil {
		return MockSeal{}, fmt.Errorf("parse mock seal: %w", err)
	}
	if s.Type != MockSealType {
		return MockSeal{}, fmt.Errorf("parse mock seal: unexpected type %q", s.Type)
	}
	return s, nil
}

// JournalDigest is the hex SHA-256 of a journal as recorded in a MockSeal.
func JournalDigest(journal []byte) string {
	sum := sha256.Sum256(journal)
	return hex.EncodeToString(sum[:])
}

// #endregion mock-seal

// #region local
// Local runs the guest in-process. It is the default backend for development,
// tests and the gRPC daemon.
type Local struct {
	scheme commitment.Scheme
	log    *zap.Logger
	now    func() time.Time
}

// NewLocal creates a local backend. A nil scheme selects the mixing commitment and
// a nil logger discards output.
func NewLocal(scheme commitment.Scheme, log *zap.Logger) *Local {
	if scheme == nil {
		scheme = commitment.Mixing
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Local{scheme: scheme, log: log, now: time.Now}
}

// ImageID returns the id of the guest program this backend runs.
func (l *Local) ImageID() string {
	return guest.ImageID(l.scheme)
}

// Execute runs the guest and wraps its journal in a mock seal.
func (l *Local) Execute(ctx context.Context, privateInput []byte) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, fmt.Errorf("local execute: %w: %w", ErrBackend, err)
	}

	jrnl, err := guest.Run(privateInput, l.scheme)
	if err != nil {
		l.log.Warn("guest execution failed", zap.Error(err))
		return Receipt{}, fmt.Errorf("local execute: %w: %w", ErrBackend, err)
	}

	seal := MockSeal{
		Type:          MockSealType,
		GuestVersion:  guest.Version,
		ImageID:       l.ImageID(),
		ReceiptID:     uuid.New().String(),
		JournalDigest: JournalDigest(jrnl),
		CreatedAt:     l.now().UTC().Format(time.RFC3339Nano),
		Note:          "mock proof: no cryptographic guarantee",
	}
	sealJSON, err := json.Marshal(seal)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal seal: %w: %w", ErrBackend, err)
	}

	l.log.Debug("guest executed",
		zap.String("receipt_id", seal.ReceiptID),
		zap.String("image_id", seal.ImageID),
		zap.Int("journal_bytes", len(jrnl)),
	)
	return Receipt{Journal: jrnl, Seal: sealJSON}, nil
}

// #endregion local

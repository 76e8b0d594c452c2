package prover

import (
	"context"
	"errors"
)

// #region types
// ErrBackend marks every failure of a proving backend. Callers must treat it as
// fatal for the invocation; the pipeline is pure, so re-running with the same
// inputs is the only form of retry.
var ErrBackend = errors.New("prover backend failed")

// Receipt is what a backend returns: the public record bytes exactly as the guest
// emitted them, plus an opaque proof artifact.
type Receipt struct {
	Journal []byte
	Seal    []byte
}

// Backend executes the guest over a private input stream.
//
// privateInput is only valid for the duration of Execute. The caller may hold it
// in locked memory that is wiped and released once Execute returns, so an
// implementation that needs the bytes afterwards must copy them.
type Backend interface {
	Execute(ctx context.Context, privateInput []byte) (Receipt, error)
}

// BackendFunc adapts a function to Backend. The same lifetime rule applies to
// privateInput.
type BackendFunc func(ctx context.Context, privateInput []byte) (Receipt, error)

// Execute calls f.
func (f BackendFunc) Execute(ctx context.Context, privateInput []byte) (Receipt, error) {
	return f(ctx, privateInput)
}

// #endregion types

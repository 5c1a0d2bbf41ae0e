package gateway

import (
	"context"

	"github.com/ayo6706/payment-notification/internal/domain"
)

// Gateway reads payment snapshots and submits version-conditional updates.
type Gateway interface {
	// FetchByReference returns the current snapshot. Errors wrap domain.ErrPaymentNotFound
	// or domain.ErrTransport.
	FetchByReference(ctx context.Context, reference string) (*domain.Payment, error)

	// ConditionalUpdate applies actions only if the payment is still at expectedVersion.
	// A write that has started is never abandoned when ctx is cancelled.
	ConditionalUpdate(ctx context.Context, reference string, expectedVersion int64, actions []domain.UpdateAction) UpdateResult
}

// Provisioner makes sure platform-side prerequisites exist. It is idempotent and safe to call per batch.
type Provisioner interface {
	EnsureProvisioned(ctx context.Context) error
}

// UpdateStatus tags the result of a conditional update.
type UpdateStatus int

const (
	UpdateApplied UpdateStatus = iota
	UpdateVersionConflict
	UpdateNotFound
	UpdateTransportError
)

func (s UpdateStatus) String() string {
	switch s {
	case UpdateApplied:
		return "applied"
	case UpdateVersionConflict:
		return "version_conflict"
	case UpdateNotFound:
		return "not_found"
	default:
		return "transport_error"
	}
}

// UpdateResult is the tagged outcome of ConditionalUpdate. Version is set when Applied,
// Err carries detail for the other variants.
type UpdateResult struct {
	Status  UpdateStatus
	Version int64
	Err     error
}

func applied(version int64) UpdateResult {
	return UpdateResult{Status: UpdateApplied, Version: version}
}

func conflict(err error) UpdateResult {
	return UpdateResult{Status: UpdateVersionConflict, Err: err}
}

func notFound(err error) UpdateResult {
	return UpdateResult{Status: UpdateNotFound, Err: err}
}

func transportFailure(err error) UpdateResult {
	return UpdateResult{Status: UpdateTransportError, Err: err}
}

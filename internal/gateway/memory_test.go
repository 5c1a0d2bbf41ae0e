package gateway

import (
	"context"
	"testing"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGatewayConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	gw.Seed(domain.Payment{ID: "id-1", Key: "P1"})

	p, err := gw.FetchByReference(ctx, "P1")
	require.NoError(t, err)
	require.Equal(t, int64(1), p.Version)

	res := gw.ConditionalUpdate(ctx, "P1", p.Version, []domain.UpdateAction{
		domain.AddTransaction(domain.TransactionDraft{Type: domain.TxTypeAuthorization, State: domain.StatePending}),
	})
	require.Equal(t, UpdateApplied, res.Status)
	require.Equal(t, int64(2), res.Version)

	stale := gw.ConditionalUpdate(ctx, "P1", 1, nil)
	require.Equal(t, UpdateVersionConflict, stale.Status)
	require.ErrorIs(t, stale.Err, domain.ErrVersionConflict)

	stored, ok := gw.Payment("P1")
	require.True(t, ok)
	require.Len(t, stored.Transactions, 1)
	txID := stored.Transactions[0].ID
	require.NotEmpty(t, txID)

	res = gw.ConditionalUpdate(ctx, "P1", 2, []domain.UpdateAction{domain.ChangeTransactionState(txID, domain.StateSuccess)})
	require.Equal(t, UpdateApplied, res.Status)

	stored, _ = gw.Payment("P1")
	assert.Equal(t, domain.StateSuccess, stored.Transactions[0].State)
	assert.Equal(t, 2, gw.Writes())
}

func TestMemoryGatewayNotFound(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	_, err := gw.FetchByReference(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrPaymentNotFound)

	res := gw.ConditionalUpdate(ctx, "missing", 1, nil)
	assert.Equal(t, UpdateNotFound, res.Status)
}

func TestMemoryGatewayInjectedResults(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	gw.Seed(domain.Payment{Key: "P1"})
	gw.InjectUpdateResults("P1", UpdateResult{Status: UpdateTransportError})

	res := gw.ConditionalUpdate(ctx, "P1", 1, nil)
	assert.Equal(t, UpdateTransportError, res.Status)

	res = gw.ConditionalUpdate(ctx, "P1", 1, nil)
	assert.Equal(t, UpdateApplied, res.Status)
}

func TestMemoryGatewaySnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	gw.Seed(domain.Payment{Key: "P1", Transactions: []domain.Transaction{{ID: "t1", Type: domain.TxTypeCharge, State: domain.StatePending}}})

	p, err := gw.FetchByReference(ctx, "P1")
	require.NoError(t, err)
	p.Transactions[0].State = domain.StateFailure

	stored, _ := gw.Payment("P1")
	assert.Equal(t, domain.StatePending, stored.Transactions[0].State)
}

func TestMemoryGatewayRejectsUnknownTransaction(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	gw.Seed(domain.Payment{Key: "P1"})

	res := gw.ConditionalUpdate(ctx, "P1", 1, []domain.UpdateAction{domain.ChangeTransactionState("nope", domain.StateSuccess)})
	assert.Equal(t, UpdateTransportError, res.Status)
	assert.Equal(t, 0, gw.Writes())
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayo6706/payment-notification/internal/db"
	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/testutil/itest"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOutcomeStore(t *testing.T) (*OutcomeStore, *pgxpool.Pool) {
	t.Helper()
	url := itest.Env(t, "DATABASE_URL")
	pool, err := db.Connect(context.Background(), url, db.Options{ApplicationName: "payment-notification-test"})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewOutcomeStore(NewStore(pool))
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store, pool
}

func TestOutcomeStoreRecordAndList(t *testing.T) {
	store, pool := setupOutcomeStore(t)
	ctx := context.Background()
	ref := "payment-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM notification_outcomes WHERE payment_reference = $1`, ref)
	})

	c := domain.CandidateTransition{
		PaymentReference: ref,
		TransactionType:  domain.TxTypeAuthorization,
		NewState:         domain.StateSuccess,
		ProviderEventID:  "psp-1:AUTHORISATION:true",
	}
	batchID := uuid.New()
	require.NoError(t, store.Record(ctx, batchID, []domain.Outcome{
		domain.Applied(c, 4),
		domain.Skipped(c, domain.ReasonDuplicate),
		domain.Failed(c, domain.ReasonTransport, errors.New("platform unavailable")),
	}))

	records, err := store.ListByReference(ctx, ref, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first, ties broken by batch position.
	assert.Equal(t, "failed", records[0].Status)
	assert.Equal(t, "platform unavailable", records[0].Error)
	assert.Equal(t, "skipped", records[1].Status)
	assert.Equal(t, domain.ReasonDuplicate, records[1].Reason)
	assert.Equal(t, "applied", records[2].Status)
	assert.Equal(t, int64(4), records[2].Version)
	for _, rec := range records {
		assert.Equal(t, batchID, rec.BatchID)
		assert.Equal(t, "Authorization", rec.TransactionType)
	}

	page, err := store.ListByReference(ctx, ref, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "skipped", page[0].Status)
}

func TestOutcomeStorePurgeBefore(t *testing.T) {
	store, pool := setupOutcomeStore(t)
	ctx := context.Background()
	ref := "payment-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM notification_outcomes WHERE payment_reference = $1`, ref)
	})

	c := domain.CandidateTransition{PaymentReference: ref, TransactionType: domain.TxTypeCharge, NewState: domain.StatePending}
	require.NoError(t, store.Record(ctx, uuid.New(), []domain.Outcome{domain.Applied(c, 2), domain.Applied(c, 3)}))
	_, err := pool.Exec(ctx, `UPDATE notification_outcomes SET created_at = NOW() - INTERVAL '10 days' WHERE payment_reference = $1 AND version = 2`, ref)
	require.NoError(t, err)

	removed, err := store.PurgeBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	records, err := store.ListByReference(ctx, ref, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].Version)
}

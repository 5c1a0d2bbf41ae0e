package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const outcomeSchema = `
CREATE TABLE IF NOT EXISTS notification_outcomes (
	id                UUID PRIMARY KEY,
	batch_id          UUID NOT NULL,
	position          INTEGER NOT NULL,
	payment_reference TEXT NOT NULL,
	event_id          TEXT NOT NULL,
	transaction_type  TEXT NOT NULL,
	state             TEXT NOT NULL,
	status            TEXT NOT NULL,
	reason            TEXT NOT NULL DEFAULT '',
	error             TEXT NOT NULL DEFAULT '',
	version           BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notification_outcomes_reference
	ON notification_outcomes (payment_reference, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notification_outcomes_created_at
	ON notification_outcomes (created_at);
`

// OutcomeStore is the operational log of reconciliation outcomes.
type OutcomeStore struct {
	store *Store
}

func NewOutcomeStore(store *Store) *OutcomeStore {
	return &OutcomeStore{store: store}
}

// EnsureSchema creates the outcome table when it does not exist.
func (s *OutcomeStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.store.db.Exec(ctx, outcomeSchema); err != nil {
		return fmt.Errorf("failed to ensure outcome schema: %w", err)
	}
	return nil
}

// Record stores every outcome of a batch atomically.
func (s *OutcomeStore) Record(ctx context.Context, batchID uuid.UUID, outcomes []domain.Outcome) error {
	query := `
		INSERT INTO notification_outcomes
			(id, batch_id, position, payment_reference, event_id, transaction_type, state, status, reason, error, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	return s.store.RunInTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, o := range outcomes {
			errText := ""
			if o.Err != nil {
				errText = o.Err.Error()
			}
			batch.Queue(query, uuid.New(), batchID, i, o.PaymentReference, o.ProviderEventID,
				string(o.TransactionType), string(o.State), string(o.Status), o.Reason, errText, o.Version)
		}
		results := tx.SendBatch(ctx, batch)
		for range outcomes {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to record outcome: %w", err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("failed to record outcomes: %w", err)
		}
		return nil
	})
}

// ListByReference returns the newest outcomes for one payment reference first.
func (s *OutcomeStore) ListByReference(ctx context.Context, reference string, limit, offset int) ([]models.OutcomeRecord, error) {
	query := `
		SELECT id, batch_id, position, payment_reference, event_id, transaction_type, state, status, reason, error, version, created_at
		FROM notification_outcomes
		WHERE payment_reference = $1
		ORDER BY created_at DESC, position DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.store.db.Query(ctx, query, reference, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer rows.Close()

	var records []models.OutcomeRecord
	for rows.Next() {
		var rec models.OutcomeRecord
		if err := rows.Scan(&rec.ID, &rec.BatchID, &rec.Position, &rec.PaymentReference, &rec.EventID,
			&rec.TransactionType, &rec.State, &rec.Status, &rec.Reason, &rec.Error, &rec.Version, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcomes: %w", err)
	}
	return records, nil
}

// PurgeBefore deletes outcomes older than cutoff and reports how many were removed.
func (s *OutcomeStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.store.db.Exec(ctx, `DELETE FROM notification_outcomes WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge outcomes: %w", err)
	}
	return tag.RowsAffected(), nil
}

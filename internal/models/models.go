package models

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeRecord is one persisted reconciliation outcome.
type OutcomeRecord struct {
	ID               uuid.UUID `json:"id"`
	BatchID          uuid.UUID `json:"batch_id"`
	Position         int       `json:"position"`
	PaymentReference string    `json:"payment_reference"`
	EventID          string    `json:"event_id"`
	TransactionType  string    `json:"transaction_type"`
	State            string    `json:"state"`
	Status           string    `json:"status"` // applied, skipped or failed
	Reason           string    `json:"reason,omitempty"`
	Error            string    `json:"error,omitempty"`
	Version          int64     `json:"version,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

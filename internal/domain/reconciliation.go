package domain

import "encoding/json"

// CandidateTransition is a proposed transaction state derived from one provider notification.
type CandidateTransition struct {
	PaymentReference string
	TransactionType  TransactionType
	NewState         TransactionState
	ProviderEventID  string
	InteractionID    string
	Amount           Money
	RawPayload       json.RawMessage
}

// OutcomeStatus classifies what happened to a candidate.
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome reasons.
const (
	ReasonDuplicate              = "duplicate"
	ReasonStaleTransition        = "stale-or-invalid-transition"
	ReasonConcurrentModification = "concurrent-modification-exhausted"
	ReasonPaymentNotFound        = "payment-not-found"
	ReasonTransport              = "transport"
	ReasonCancelled              = "cancelled"
	ReasonInvalidState           = "invalid-state"
	ReasonMalformedPayload       = "malformed-payload"
)

// Outcome is the per-candidate result of a reconciliation call.
type Outcome struct {
	PaymentReference string           `json:"payment_reference"`
	ProviderEventID  string           `json:"provider_event_id"`
	TransactionType  TransactionType  `json:"transaction_type"`
	State            TransactionState `json:"state"`
	Status           OutcomeStatus    `json:"status"`
	Reason           string           `json:"reason,omitempty"`
	Version          int64            `json:"version,omitempty"`
	Err              error            `json:"-"`
}

// Applied builds an outcome for a written candidate.
func Applied(c CandidateTransition, version int64) Outcome {
	o := outcomeFor(c, OutcomeApplied, "")
	o.Version = version
	return o
}

// Skipped builds an outcome for a candidate that needed no write.
func Skipped(c CandidateTransition, reason string) Outcome {
	return outcomeFor(c, OutcomeSkipped, reason)
}

// Failed builds an outcome for a candidate that could not be applied.
func Failed(c CandidateTransition, reason string, err error) Outcome {
	o := outcomeFor(c, OutcomeFailed, reason)
	o.Err = err
	return o
}

func outcomeFor(c CandidateTransition, status OutcomeStatus, reason string) Outcome {
	return Outcome{
		PaymentReference: c.PaymentReference,
		ProviderEventID:  c.ProviderEventID,
		TransactionType:  c.TransactionType,
		State:            c.NewState,
		Status:           status,
		Reason:           reason,
	}
}

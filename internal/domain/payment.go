package domain

import (
	"encoding/json"
	"time"
)

// Payment is the snapshot of a payment resource owned by the commerce platform.
type Payment struct {
	ID                    string                 `json:"id"`
	Key                   string                 `json:"key"`
	Version               int64                  `json:"version"`
	AmountPlanned         Money                  `json:"amountPlanned"`
	Transactions          []Transaction          `json:"transactions"`
	InterfaceInteractions []InterfaceInteraction `json:"interfaceInteractions,omitempty"`
}

// Transaction is one financial operation recorded on a payment.
type Transaction struct {
	ID            string           `json:"id,omitempty"`
	Type          TransactionType  `json:"type"`
	State         TransactionState `json:"state"`
	Amount        Money            `json:"amount"`
	InteractionID string           `json:"interactionId,omitempty"`
}

// InterfaceInteraction records a raw exchange with the payment provider.
type InterfaceInteraction struct {
	Type   TypeReference  `json:"type"`
	Fields map[string]any `json:"fields"`
}

// TypeReference points at a custom type by key.
type TypeReference struct {
	TypeID string `json:"typeId"`
	Key    string `json:"key"`
}

// TransactionByType returns the most recent transaction of the given type, if any.
func (p *Payment) TransactionByType(t TransactionType) (*Transaction, bool) {
	for i := len(p.Transactions) - 1; i >= 0; i-- {
		if p.Transactions[i].Type == t {
			return &p.Transactions[i], true
		}
	}
	return nil, false
}

// TransactionDraft is the body of an addTransaction action.
type TransactionDraft struct {
	Type          TransactionType  `json:"type"`
	Amount        Money            `json:"amount"`
	State         TransactionState `json:"state"`
	InteractionID string           `json:"interactionId,omitempty"`
	Timestamp     string           `json:"timestamp,omitempty"`
}

// UpdateAction is one entry of a payment update request.
type UpdateAction struct {
	Action        string            `json:"action"`
	Transaction   *TransactionDraft `json:"transaction,omitempty"`
	TransactionID string            `json:"transactionId,omitempty"`
	State         TransactionState  `json:"state,omitempty"`
	Type          *TypeReference    `json:"type,omitempty"`
	Fields        map[string]any    `json:"fields,omitempty"`
}

// AddTransaction builds an action creating a new transaction.
func AddTransaction(draft TransactionDraft) UpdateAction {
	return UpdateAction{Action: ActionAddTransaction, Transaction: &draft}
}

// ChangeTransactionState builds an action moving an existing transaction to state.
func ChangeTransactionState(transactionID string, state TransactionState) UpdateAction {
	return UpdateAction{Action: ActionChangeTransactionState, TransactionID: transactionID, State: state}
}

// AddInterfaceInteraction builds an action storing the raw notification on the payment.
func AddInterfaceInteraction(typeKey, eventID string, raw json.RawMessage, at time.Time) UpdateAction {
	fields := map[string]any{
		"createdAt":    at.UTC().Format(time.RFC3339),
		"type":         "notification",
		"eventId":      eventID,
		"notification": string(raw),
	}
	return UpdateAction{
		Action: ActionAddInterfaceInteraction,
		Type:   &TypeReference{TypeID: "type", Key: typeKey},
		Fields: fields,
	}
}

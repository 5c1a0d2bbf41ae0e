package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ayo6706/payment-notification/internal/domain"
)

// Envelope is the batch body posted by the payment provider.
type Envelope struct {
	Live              string            `json:"live"`
	NotificationItems []json.RawMessage `json:"notificationItems"`
}

// Item wraps one NotificationRequestItem.
type Item struct {
	NotificationRequestItem *RequestItem `json:"NotificationRequestItem"`
}

// RequestItem is the provider's notification for a single payment event.
type RequestItem struct {
	EventCode           string            `json:"eventCode"`
	Success             string            `json:"success"`
	MerchantReference   string            `json:"merchantReference"`
	PSPReference        string            `json:"pspReference"`
	OriginalReference   string            `json:"originalReference,omitempty"`
	MerchantAccountCode string            `json:"merchantAccountCode,omitempty"`
	EventDate           string            `json:"eventDate,omitempty"`
	Reason              string            `json:"reason,omitempty"`
	Amount              *Amount           `json:"amount,omitempty"`
	AdditionalData      map[string]string `json:"additionalData,omitempty"`
}

// Amount is expressed in minor units.
type Amount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

type eventMapping struct {
	txType    domain.TransactionType
	onSuccess domain.TransactionState
	onFailure domain.TransactionState
}

var eventTable = map[string]eventMapping{
	"AUTHORISATION":     {domain.TxTypeAuthorization, domain.StateSuccess, domain.StateFailure},
	"PENDING":           {domain.TxTypeAuthorization, domain.StatePending, domain.StatePending},
	"OFFER_CLOSED":      {domain.TxTypeAuthorization, domain.StateFailure, domain.StateFailure},
	"CANCELLATION":      {domain.TxTypeCancelAuthorization, domain.StateSuccess, domain.StateFailure},
	"CAPTURE":           {domain.TxTypeCharge, domain.StateSuccess, domain.StateFailure},
	"CAPTURE_FAILED":    {domain.TxTypeCharge, domain.StateFailure, domain.StateFailure},
	"REFUND":            {domain.TxTypeRefund, domain.StateSuccess, domain.StateFailure},
	"REFUND_FAILED":     {domain.TxTypeRefund, domain.StateFailure, domain.StateFailure},
	"REFUNDED_REVERSED": {domain.TxTypeRefund, domain.StateFailure, domain.StateFailure},
	"CHARGEBACK":        {domain.TxTypeChargeback, domain.StateSuccess, domain.StateSuccess},
}

// ParseEnvelope decodes a batch body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return &env, nil
}

// Map converts one raw notification item into a candidate transition.
func Map(raw json.RawMessage) (domain.CandidateTransition, error) {
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return domain.CandidateTransition{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	req := item.NotificationRequestItem
	if req == nil {
		return domain.CandidateTransition{}, fmt.Errorf("%w: missing NotificationRequestItem", domain.ErrMalformedPayload)
	}

	ref := strings.TrimSpace(req.MerchantReference)
	psp := strings.TrimSpace(req.PSPReference)
	code := strings.ToUpper(strings.TrimSpace(req.EventCode))
	// Returned with errors past this point so failed outcomes still name the payment.
	partial := domain.CandidateTransition{PaymentReference: ref, RawPayload: raw}
	var missing []string
	if ref == "" {
		missing = append(missing, "merchantReference")
	}
	if psp == "" {
		missing = append(missing, "pspReference")
	}
	if code == "" {
		missing = append(missing, "eventCode")
	}
	if len(missing) > 0 {
		return partial, fmt.Errorf("%w: missing %s", domain.ErrMalformedPayload, strings.Join(missing, ", "))
	}

	mapping, ok := eventTable[code]
	if !ok {
		return partial, fmt.Errorf("%w: unsupported event code %q", domain.ErrMalformedPayload, code)
	}
	success, err := parseSuccess(req.Success)
	if err != nil {
		return partial, err
	}
	state := mapping.onFailure
	if success {
		state = mapping.onSuccess
	}

	var amount domain.Money
	if req.Amount != nil {
		amount = domain.NewMoney(req.Amount.Value, strings.ToUpper(req.Amount.Currency))
	}

	return domain.CandidateTransition{
		PaymentReference: ref,
		TransactionType:  mapping.txType,
		NewState:         state,
		ProviderEventID:  EventID(psp, code, success),
		InteractionID:    psp,
		Amount:           amount,
		RawPayload:       raw,
	}, nil
}

// EventID identifies a provider event for duplicate suppression. The provider may send
// the same pspReference for several event codes, so all three parts are required.
func EventID(pspReference, eventCode string, success bool) string {
	return fmt.Sprintf("%s:%s:%t", pspReference, eventCode, success)
}

func parseSuccess(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "":
		return false, fmt.Errorf("%w: missing success", domain.ErrMalformedPayload)
	default:
		return false, fmt.Errorf("%w: success must be \"true\" or \"false\", got %q", domain.ErrMalformedPayload, raw)
	}
}

// IsMalformed reports whether err came from an unmappable item.
func IsMalformed(err error) bool {
	return errors.Is(err, domain.ErrMalformedPayload)
}

package notification

import (
	"encoding/json"
	"testing"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawItem(t *testing.T, fields map[string]any) json.RawMessage {
	t.Helper()
	body, err := json.Marshal(map[string]any{"NotificationRequestItem": fields})
	require.NoError(t, err)
	return body
}

func TestMapAuthorisation(t *testing.T) {
	raw := rawItem(t, map[string]any{
		"eventCode":         "AUTHORISATION",
		"success":           "true",
		"merchantReference": "payment-1",
		"pspReference":      "8535296650153317",
		"amount":            map[string]any{"value": 1099, "currency": "eur"},
	})

	c, err := Map(raw)
	require.NoError(t, err)
	assert.Equal(t, "payment-1", c.PaymentReference)
	assert.Equal(t, domain.TxTypeAuthorization, c.TransactionType)
	assert.Equal(t, domain.StateSuccess, c.NewState)
	assert.Equal(t, "8535296650153317:AUTHORISATION:true", c.ProviderEventID)
	assert.Equal(t, "8535296650153317", c.InteractionID)
	assert.Equal(t, domain.NewMoney(1099, "EUR"), c.Amount)
	assert.JSONEq(t, string(raw), string(c.RawPayload))
}

func TestMapEventTable(t *testing.T) {
	cases := []struct {
		code    string
		success string
		txType  domain.TransactionType
		state   domain.TransactionState
	}{
		{"AUTHORISATION", "false", domain.TxTypeAuthorization, domain.StateFailure},
		{"PENDING", "true", domain.TxTypeAuthorization, domain.StatePending},
		{"OFFER_CLOSED", "true", domain.TxTypeAuthorization, domain.StateFailure},
		{"CANCELLATION", "true", domain.TxTypeCancelAuthorization, domain.StateSuccess},
		{"CAPTURE", "true", domain.TxTypeCharge, domain.StateSuccess},
		{"CAPTURE", "false", domain.TxTypeCharge, domain.StateFailure},
		{"capture_failed", "true", domain.TxTypeCharge, domain.StateFailure},
		{"REFUND", "true", domain.TxTypeRefund, domain.StateSuccess},
		{"REFUND_FAILED", "true", domain.TxTypeRefund, domain.StateFailure},
		{"REFUNDED_REVERSED", "true", domain.TxTypeRefund, domain.StateFailure},
		{"CHARGEBACK", "true", domain.TxTypeChargeback, domain.StateSuccess},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.code+"/"+tc.success, func(t *testing.T) {
			c, err := Map(rawItem(t, map[string]any{
				"eventCode":         tc.code,
				"success":           tc.success,
				"merchantReference": "p",
				"pspReference":      "psp",
			}))
			require.NoError(t, err)
			assert.Equal(t, tc.txType, c.TransactionType)
			assert.Equal(t, tc.state, c.NewState)
		})
	}
}

func TestMapMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  json.RawMessage
	}{
		{"not json", json.RawMessage(`{`)},
		{"no request item", json.RawMessage(`{"foo":1}`)},
		{"missing reference", rawItem(t, map[string]any{"eventCode": "AUTHORISATION", "success": "true", "pspReference": "x"})},
		{"missing psp", rawItem(t, map[string]any{"eventCode": "AUTHORISATION", "success": "true", "merchantReference": "p"})},
		{"missing event code", rawItem(t, map[string]any{"success": "true", "merchantReference": "p", "pspReference": "x"})},
		{"unknown event code", rawItem(t, map[string]any{"eventCode": "REPORT_AVAILABLE", "success": "true", "merchantReference": "p", "pspReference": "x"})},
		{"bad success flag", rawItem(t, map[string]any{"eventCode": "CAPTURE", "success": "yes", "merchantReference": "p", "pspReference": "x"})},
		{"missing success flag", rawItem(t, map[string]any{"eventCode": "CAPTURE", "merchantReference": "p", "pspReference": "x"})},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Map(tc.raw)
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
		})
	}
}

func TestParseEnvelope(t *testing.T) {
	body := []byte(`{"live":"false","notificationItems":[{"NotificationRequestItem":{"eventCode":"PENDING"}},{"NotificationRequestItem":{}}]}`)
	env, err := ParseEnvelope(body)
	require.NoError(t, err)
	assert.Equal(t, "false", env.Live)
	assert.Len(t, env.NotificationItems, 2)

	_, err = ParseEnvelope([]byte(`[]`))
	require.ErrorIs(t, err, domain.ErrMalformedPayload)
}

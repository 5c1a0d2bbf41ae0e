package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	batchFile = filepath.Join("testdata", "batch.json")
	seedFile  = filepath.Join("testdata", "seed.json")
)

type stubHandler struct {
	calls int
	err   error
}

func (s *stubHandler) Handle(ctx context.Context, body []byte) (*service.Ack, []domain.Outcome, error) {
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	return &service.Ack{NotificationResponse: domain.NotificationAccepted}, []domain.Outcome{{
		PaymentReference: "order-1001",
		Status:           domain.OutcomeSkipped,
		Reason:           domain.ReasonDuplicate,
	}}, nil
}

func runCLI(t *testing.T, factory RuntimeFactory, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCommand(factory)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReconcileDryRunJSON(t *testing.T) {
	out, err := runCLI(t, unusedFactory(t), "reconcile", "--file", batchFile, "--dry-run", "--seed", seedFile, "--format", "json")
	require.NoError(t, err)

	var report reconcileReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, domain.NotificationAccepted, report.NotificationResponse)
	require.Len(t, report.Outcomes, 4)

	assert.Equal(t, domain.OutcomeApplied, report.Outcomes[0].Status)
	assert.Equal(t, domain.OutcomeApplied, report.Outcomes[1].Status)
	assert.Equal(t, domain.OutcomeFailed, report.Outcomes[2].Status)
	assert.Equal(t, domain.ReasonPaymentNotFound, report.Outcomes[2].Reason)
	assert.Equal(t, domain.OutcomeFailed, report.Outcomes[3].Status)
	assert.Equal(t, domain.ReasonMalformedPayload, report.Outcomes[3].Reason)
	assert.Equal(t, "order-1001", report.Outcomes[3].PaymentReference)

	require.Len(t, report.Payments, 1)
	p := report.Payments[0]
	assert.Equal(t, int64(6), p.Version)
	auth, ok := p.TransactionByType(domain.TxTypeAuthorization)
	require.True(t, ok)
	assert.Equal(t, domain.StateSuccess, auth.State)
	charge, ok := p.TransactionByType(domain.TxTypeCharge)
	require.True(t, ok)
	assert.Equal(t, domain.StateSuccess, charge.State)
	assert.Equal(t, int64(2599), charge.Amount.CentAmount)
	assert.Len(t, p.InterfaceInteractions, 2)
}

func TestReconcileDryRunText(t *testing.T) {
	out, err := runCLI(t, unusedFactory(t), "reconcile", "-f", batchFile, "--dry-run", "--seed", seedFile)
	require.NoError(t, err)

	assert.Contains(t, out, "4 item(s): 2 applied, 0 skipped, 2 failed")
	assert.Contains(t, out, "payment-not-found")
	assert.Contains(t, out, "payment order-1001 version 6")
	assert.Contains(t, out, "25.99 EUR")
}

func TestReconcileUsesPlatformRuntime(t *testing.T) {
	handler := &stubHandler{}
	closed := false
	factory := func(ctx context.Context) (*Runtime, error) {
		return &Runtime{Notifications: handler, Close: func() { closed = true }}, nil
	}

	out, err := runCLI(t, factory, "reconcile", "--file", batchFile)
	require.NoError(t, err)
	assert.Equal(t, 1, handler.calls)
	assert.True(t, closed)
	assert.Contains(t, out, "duplicate")
}

func TestReconcileSurfacesBatchErrors(t *testing.T) {
	handler := &stubHandler{err: domain.ErrTransport}
	factory := func(ctx context.Context) (*Runtime, error) {
		return &Runtime{Notifications: handler, Close: func() {}}, nil
	}

	_, err := runCLI(t, factory, "reconcile", "--file", batchFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport))
}

func TestReconcileArgumentErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing file flag", []string{"reconcile"}, "file"},
		{"unreadable file", []string{"reconcile", "--file", filepath.Join("testdata", "nope.json")}, "read batch"},
		{"seed without dry run", []string{"reconcile", "--file", batchFile, "--seed", seedFile}, "--seed requires --dry-run"},
		{"bad seed", []string{"reconcile", "--file", batchFile, "--dry-run", "--seed", batchFile}, "decode seed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, unusedFactory(t), tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayo6706/payment-notification/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func provisionFactory(p *gateway.MemoryProvisioner) RuntimeFactory {
	return func(ctx context.Context) (*Runtime, error) {
		return &Runtime{Provisioner: p, InteractionTypeKey: "interaction-notification", Close: func() {}}, nil
	}
}

func TestProvision(t *testing.T) {
	p := &gateway.MemoryProvisioner{}

	out, err := runCLI(t, provisionFactory(p), "provision")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Calls())
	assert.Contains(t, out, `interaction type "interaction-notification" ready`)
}

func TestProvisionJSON(t *testing.T) {
	p := &gateway.MemoryProvisioner{}

	out, err := runCLI(t, provisionFactory(p), "provision", "--format", "json")
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, "interaction-notification", body["interactionTypeKey"])
}

func TestProvisionFailure(t *testing.T) {
	p := &gateway.MemoryProvisioner{Err: errors.New("forbidden")}

	_, err := runCLI(t, provisionFactory(p), "provision")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provision: forbidden")
}

func TestFactoryErrorsAreReturned(t *testing.T) {
	factory := func(ctx context.Context) (*Runtime, error) { return nil, errors.New("load config: CTP_PROJECT_KEY is required") }

	_, err := runCLI(t, factory, "provision")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CTP_PROJECT_KEY")
}

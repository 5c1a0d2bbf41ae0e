package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ayo6706/payment-notification/internal/domain"
	"go.uber.org/zap"
)

type localizedString map[string]string

type fieldType struct {
	Name string `json:"name"`
}

type fieldDefinition struct {
	Name      string          `json:"name"`
	Label     localizedString `json:"label"`
	Required  bool            `json:"required"`
	Type      fieldType       `json:"type"`
	InputHint string          `json:"inputHint"`
}

type typeDraft struct {
	Key              string            `json:"key"`
	Name             localizedString   `json:"name"`
	ResourceTypeIDs  []string          `json:"resourceTypeIds"`
	FieldDefinitions []fieldDefinition `json:"fieldDefinitions"`
}

// InteractionTypeProvisioner ensures the custom type used for notification interface
// interactions exists on the platform.
type InteractionTypeProvisioner struct {
	client *Client
	key    string
}

// NewInteractionTypeProvisioner creates a provisioner for the given type key.
func NewInteractionTypeProvisioner(client *Client, key string) *InteractionTypeProvisioner {
	if key == "" {
		key = domain.DefaultInteractionTypeKey
	}
	return &InteractionTypeProvisioner{client: client, key: key}
}

// EnsureProvisioned creates the type when it is missing. Concurrent callers may both try to
// create it; the loser sees a duplicate-key rejection, which counts as provisioned.
func (p *InteractionTypeProvisioner) EnsureProvisioned(ctx context.Context) error {
	resp, err := p.client.do(ctx, "fetch_type", http.MethodGet, "/types/key="+url.PathEscape(p.key), nil, false)
	if err != nil {
		return fmt.Errorf("fetch interaction type: %w", err)
	}
	switch resp.status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("%w: fetch interaction type: status %d", domain.ErrTransport, resp.status)
	}

	body, err := json.Marshal(p.draft())
	if err != nil {
		return fmt.Errorf("encode interaction type: %w", err)
	}
	resp, err = p.client.do(ctx, "create_type", http.MethodPost, "/types", body, true)
	if err != nil {
		return fmt.Errorf("create interaction type: %w", err)
	}
	switch {
	case resp.status == http.StatusOK || resp.status == http.StatusCreated:
		zap.L().Info("interaction type created", zap.String("key", p.key))
		return nil
	case resp.status == http.StatusConflict || resp.platformError().hasCode("DuplicateField"):
		zap.L().Info("interaction type created concurrently", zap.String("key", p.key))
		return nil
	default:
		return fmt.Errorf("%w: create interaction type: status %d: %s", domain.ErrTransport, resp.status, resp.platformError().Message)
	}
}

func (p *InteractionTypeProvisioner) draft() typeDraft {
	field := func(name, kind string) fieldDefinition {
		return fieldDefinition{
			Name:      name,
			Label:     localizedString{"en": name},
			Type:      fieldType{Name: kind},
			InputHint: "SingleLine",
		}
	}
	return typeDraft{
		Key:             p.key,
		Name:            localizedString{"en": "Payment provider notification interaction"},
		ResourceTypeIDs: []string{"payment-interface-interaction"},
		FieldDefinitions: []fieldDefinition{
			field("createdAt", "DateTime"),
			field("type", "String"),
			field("eventId", "String"),
			field("notification", "String"),
		},
	}
}

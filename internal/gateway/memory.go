package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/google/uuid"
)

// MemoryGateway keeps payments in process and enforces the same version check as the
// platform. It backs tests and the CLI dry-run mode.
type MemoryGateway struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
	injected map[string][]UpdateResult
	writes   int

	// BeforeUpdate, when set, runs before the version check of every update without the lock held.
	BeforeUpdate func(reference string)
}

// NewMemoryGateway creates an empty MemoryGateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		payments: make(map[string]*domain.Payment),
		injected: make(map[string][]UpdateResult),
	}
}

// Seed stores a payment snapshot keyed by its Key. Version defaults to 1.
func (g *MemoryGateway) Seed(p domain.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p.Version == 0 {
		p.Version = 1
	}
	cp := clonePayment(&p)
	g.payments[p.Key] = cp
}

// Payment returns a copy of the stored payment.
func (g *MemoryGateway) Payment(reference string) (domain.Payment, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[reference]
	if !ok {
		return domain.Payment{}, false
	}
	return *clonePayment(p), true
}

// Writes reports how many updates were applied.
func (g *MemoryGateway) Writes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

// InjectUpdateResults queues results returned by the next updates of reference instead of applying them.
func (g *MemoryGateway) InjectUpdateResults(reference string, results ...UpdateResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.injected[reference] = append(g.injected[reference], results...)
}

// Bump simulates a concurrent writer by incrementing the stored version.
func (g *MemoryGateway) Bump(reference string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.payments[reference]; ok {
		p.Version++
	}
}

func (g *MemoryGateway) FetchByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch payment canceled: %w", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[reference]
	if !ok {
		return nil, fmt.Errorf("payment %q: %w", reference, domain.ErrPaymentNotFound)
	}
	return clonePayment(p), nil
}

func (g *MemoryGateway) ConditionalUpdate(ctx context.Context, reference string, expectedVersion int64, actions []domain.UpdateAction) UpdateResult {
	if g.BeforeUpdate != nil {
		g.BeforeUpdate(reference)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if queued := g.injected[reference]; len(queued) > 0 {
		g.injected[reference] = queued[1:]
		return queued[0]
	}

	p, ok := g.payments[reference]
	if !ok {
		return notFound(fmt.Errorf("payment %q: %w", reference, domain.ErrPaymentNotFound))
	}
	if p.Version != expectedVersion {
		return conflict(fmt.Errorf("expected version %d, current %d: %w", expectedVersion, p.Version, domain.ErrVersionConflict))
	}

	next := clonePayment(p)
	for _, a := range actions {
		if err := applyAction(next, a); err != nil {
			return transportFailure(fmt.Errorf("invalid action %s: %w", a.Action, err))
		}
	}
	next.Version++
	g.payments[reference] = next
	g.writes++
	return applied(next.Version)
}

func applyAction(p *domain.Payment, a domain.UpdateAction) error {
	switch a.Action {
	case domain.ActionAddTransaction:
		if a.Transaction == nil {
			return fmt.Errorf("missing transaction draft")
		}
		p.Transactions = append(p.Transactions, domain.Transaction{
			ID:            uuid.NewString(),
			Type:          a.Transaction.Type,
			State:         a.Transaction.State,
			Amount:        a.Transaction.Amount,
			InteractionID: a.Transaction.InteractionID,
		})
	case domain.ActionChangeTransactionState:
		for i := range p.Transactions {
			if p.Transactions[i].ID == a.TransactionID {
				p.Transactions[i].State = a.State
				return nil
			}
		}
		return fmt.Errorf("transaction %q not found", a.TransactionID)
	case domain.ActionAddInterfaceInteraction:
		if a.Type == nil {
			return fmt.Errorf("missing interaction type")
		}
		p.InterfaceInteractions = append(p.InterfaceInteractions, domain.InterfaceInteraction{
			Type:   *a.Type,
			Fields: a.Fields,
		})
	default:
		return fmt.Errorf("unsupported action")
	}
	return nil
}

func clonePayment(p *domain.Payment) *domain.Payment {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("clone payment: %v", err))
	}
	var out domain.Payment
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("clone payment: %v", err))
	}
	return &out
}

// MemoryProvisioner counts provisioning calls.
type MemoryProvisioner struct {
	mu    sync.Mutex
	calls int
	Err   error
}

func (p *MemoryProvisioner) EnsureProvisioned(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.Err
}

// Calls reports how many times EnsureProvisioned ran.
func (p *MemoryProvisioner) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

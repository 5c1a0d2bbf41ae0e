package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/gateway"
	"github.com/ayo6706/payment-notification/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EventLedger remembers provider events that were already applied. It only short-cuts
// redeliveries; the state lattice stays authoritative.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string) error
}

// ReconcilerConfig bounds the coordinator.
type ReconcilerConfig struct {
	// Concurrency caps how many payment references are processed at once.
	Concurrency int
	// MaxConflictRetries is the number of re-fetch attempts after a version conflict.
	MaxConflictRetries int
	// InteractionTypeKey types the interface interaction appended on every write.
	InteractionTypeKey string
}

// Reconciler applies candidate transitions to payments. Candidates for the same payment
// reference are processed strictly in arrival order; distinct references run in parallel.
type Reconciler struct {
	gw     gateway.Gateway
	ledger EventLedger
	cfg    ReconcilerConfig
	now    func() time.Time
}

// NewReconciler creates a coordinator on top of gw.
func NewReconciler(gw gateway.Gateway, cfg ReconcilerConfig) *Reconciler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.MaxConflictRetries < 0 {
		cfg.MaxConflictRetries = 0
	}
	if cfg.InteractionTypeKey == "" {
		cfg.InteractionTypeKey = domain.DefaultInteractionTypeKey
	}
	return &Reconciler{gw: gw, cfg: cfg, now: time.Now}
}

// WithLedger enables duplicate suppression by provider event id.
func (r *Reconciler) WithLedger(ledger EventLedger) *Reconciler {
	r.ledger = ledger
	return r
}

// Reconcile returns one outcome per candidate, at the candidate's index. It never fails
// as a whole: every per-candidate problem is reported in its outcome.
func (r *Reconciler) Reconcile(ctx context.Context, candidates []domain.CandidateTransition) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(candidates))
	groups, order := groupByReference(candidates)

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for _, ref := range order {
		ref, idxs := ref, groups[ref]
		g.Go(func() error {
			r.processGroup(ctx, ref, idxs, candidates, outcomes)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// groupByReference partitions candidate indexes by payment reference, keeping arrival
// order inside a group and first-seen order across groups.
func groupByReference(candidates []domain.CandidateTransition) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i, c := range candidates {
		if _, ok := groups[c.PaymentReference]; !ok {
			order = append(order, c.PaymentReference)
		}
		groups[c.PaymentReference] = append(groups[c.PaymentReference], i)
	}
	return groups, order
}

func (r *Reconciler) processGroup(ctx context.Context, ref string, idxs []int, candidates []domain.CandidateTransition, outcomes []domain.Outcome) {
	ctx, span := otel.Tracer("service").Start(ctx, "reconcile.group")
	defer span.End()
	span.SetAttributes(attribute.String("payment.reference", ref), attribute.Int("candidates", len(idxs)))

	for _, idx := range idxs {
		c := candidates[idx]
		if err := ctx.Err(); err != nil {
			outcomes[idx] = cancelled(c, err)
		} else {
			outcomes[idx] = r.apply(ctx, c)
		}
		logOutcome(outcomes[idx])
	}
}

// apply drives one candidate through fetch, compare and conditional update, re-fetching
// after each version conflict.
func (r *Reconciler) apply(ctx context.Context, c domain.CandidateTransition) domain.Outcome {
	if _, err := domain.ParseTransactionState(string(c.NewState)); err != nil {
		return domain.Failed(c, domain.ReasonInvalidState, err)
	}
	if r.seen(ctx, c.ProviderEventID) {
		return domain.Skipped(c, domain.ReasonDuplicate)
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return cancelled(c, err)
		}

		snapshot, err := r.gw.FetchByReference(ctx, c.PaymentReference)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrPaymentNotFound):
				return domain.Failed(c, domain.ReasonPaymentNotFound, err)
			case ctx.Err() != nil:
				return cancelled(c, ctx.Err())
			default:
				return domain.Failed(c, domain.ReasonTransport, err)
			}
		}

		existing, found := snapshot.TransactionByType(c.TransactionType)
		var current *domain.TransactionState
		if found {
			current = &existing.State
		}
		decision, err := domain.CompareToExisting(current, c.NewState)
		if err != nil {
			return domain.Failed(c, domain.ReasonInvalidState, err)
		}

		switch decision {
		case domain.Reject:
			return domain.Skipped(c, domain.ReasonStaleTransition)
		case domain.NoOp:
			r.remember(ctx, c.ProviderEventID)
			return domain.Skipped(c, domain.ReasonDuplicate)
		}

		res := r.gw.ConditionalUpdate(ctx, c.PaymentReference, snapshot.Version, r.actions(c, snapshot, existing))
		switch res.Status {
		case gateway.UpdateApplied:
			r.remember(ctx, c.ProviderEventID)
			return domain.Applied(c, res.Version)
		case gateway.UpdateVersionConflict:
			observability.IncrementVersionConflict()
			zap.L().Debug("payment version conflict",
				zap.String("payment_reference", c.PaymentReference),
				zap.Int64("version", snapshot.Version),
				zap.Int("attempt", attempt+1),
			)
			if attempt >= r.cfg.MaxConflictRetries {
				return domain.Failed(c, domain.ReasonConcurrentModification,
					fmt.Errorf("%w after %d attempts: %v", domain.ErrConflictExhausted, attempt+1, res.Err))
			}
		case gateway.UpdateNotFound:
			return domain.Failed(c, domain.ReasonPaymentNotFound, res.Err)
		default:
			if ctx.Err() != nil {
				return cancelled(c, ctx.Err())
			}
			return domain.Failed(c, domain.ReasonTransport, res.Err)
		}
	}
}

// actions builds the update for an accepted candidate: the transaction change followed
// by the raw notification as an interface interaction.
func (r *Reconciler) actions(c domain.CandidateTransition, snapshot *domain.Payment, existing *domain.Transaction) []domain.UpdateAction {
	now := r.now()
	var tx domain.UpdateAction
	if existing != nil {
		tx = domain.ChangeTransactionState(existing.ID, c.NewState)
	} else {
		amount := c.Amount
		if amount.IsZero() {
			amount = snapshot.AmountPlanned
		}
		tx = domain.AddTransaction(domain.TransactionDraft{
			Type:          c.TransactionType,
			Amount:        amount,
			State:         c.NewState,
			InteractionID: c.InteractionID,
			Timestamp:     now.UTC().Format(time.RFC3339),
		})
	}
	return []domain.UpdateAction{
		tx,
		domain.AddInterfaceInteraction(r.cfg.InteractionTypeKey, c.ProviderEventID, c.RawPayload, now),
	}
}

func (r *Reconciler) seen(ctx context.Context, eventID string) bool {
	if r.ledger == nil || eventID == "" {
		return false
	}
	seen, err := r.ledger.Seen(ctx, eventID)
	if err != nil {
		observability.IncrementEventLedger("error")
		zap.L().Warn("event ledger lookup failed", zap.String("event_id", eventID), zap.Error(err))
		return false
	}
	if seen {
		observability.IncrementEventLedger("hit")
	} else {
		observability.IncrementEventLedger("miss")
	}
	return seen
}

func (r *Reconciler) remember(ctx context.Context, eventID string) {
	if r.ledger == nil || eventID == "" {
		return
	}
	if err := r.ledger.Remember(context.WithoutCancel(ctx), eventID); err != nil {
		observability.IncrementEventLedger("error")
		zap.L().Warn("event ledger write failed", zap.String("event_id", eventID), zap.Error(err))
	}
}

func cancelled(c domain.CandidateTransition, cause error) domain.Outcome {
	return domain.Failed(c, domain.ReasonCancelled, fmt.Errorf("%w: %w", domain.ErrCancelled, cause))
}

func logOutcome(o domain.Outcome) {
	observability.IncrementOutcome(string(o.Status), o.Reason)
	fields := []zap.Field{
		zap.String("payment_reference", o.PaymentReference),
		zap.String("event_id", o.ProviderEventID),
		zap.String("transaction_type", string(o.TransactionType)),
		zap.String("state", string(o.State)),
		zap.String("outcome", string(o.Status)),
		zap.String("reason", o.Reason),
	}
	if o.Status == domain.OutcomeFailed {
		zap.L().Warn("notification not applied", append(fields, zap.Error(o.Err))...)
		return
	}
	zap.L().Info("notification reconciled", append(fields, zap.Int64("version", o.Version))...)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/ayo6706/payment-notification/internal/gateway"
	"github.com/ayo6706/payment-notification/internal/notification"
	"github.com/ayo6706/payment-notification/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutcomeRecorder keeps an operational log of reconciliation outcomes.
type OutcomeRecorder interface {
	Record(ctx context.Context, batchID uuid.UUID, outcomes []domain.Outcome) error
}

// OutcomePublisher announces reconciliation outcomes to downstream consumers.
type OutcomePublisher interface {
	PublishOutcomes(ctx context.Context, batchID uuid.UUID, outcomes []domain.Outcome) error
}

// Ack is the acknowledgment the provider expects for every accepted batch.
type Ack struct {
	NotificationResponse string `json:"notificationResponse"`
}

// NotificationService handles incoming provider notification batches.
type NotificationService struct {
	reconciler  *Reconciler
	provisioner gateway.Provisioner
	recorder    OutcomeRecorder
	publisher   OutcomePublisher
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(reconciler *Reconciler, provisioner gateway.Provisioner) *NotificationService {
	return &NotificationService{reconciler: reconciler, provisioner: provisioner}
}

// WithRecorder stores outcomes of every batch.
func (s *NotificationService) WithRecorder(recorder OutcomeRecorder) *NotificationService {
	s.recorder = recorder
	return s
}

// WithPublisher publishes outcomes of every batch.
func (s *NotificationService) WithPublisher(publisher OutcomePublisher) *NotificationService {
	s.publisher = publisher
	return s
}

// Handle reconciles one notification batch. Per-item problems never fail the batch; an
// error is returned only when the whole batch must be redelivered: an unreadable envelope
// or missing platform prerequisites.
func (s *NotificationService) Handle(ctx context.Context, body []byte) (*Ack, []domain.Outcome, error) {
	start := time.Now()

	env, err := notification.ParseEnvelope(body)
	if err != nil {
		return nil, nil, err
	}

	if err := s.provisioner.EnsureProvisioned(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure interaction type: %w", err)
	}

	outcomes := make([]domain.Outcome, len(env.NotificationItems))
	candidates := make([]domain.CandidateTransition, 0, len(env.NotificationItems))
	positions := make([]int, 0, len(env.NotificationItems))
	for i, raw := range env.NotificationItems {
		c, err := notification.Map(raw)
		if err != nil {
			outcomes[i] = domain.Failed(c, domain.ReasonMalformedPayload, err)
			logOutcome(outcomes[i])
			continue
		}
		candidates = append(candidates, c)
		positions = append(positions, i)
	}

	for i, o := range s.reconciler.Reconcile(ctx, candidates) {
		outcomes[positions[i]] = o
	}

	batchID := uuid.New()
	s.emit(ctx, batchID, outcomes)

	observability.ObserveBatch(len(outcomes), time.Since(start))
	zap.L().Info("notification batch processed",
		zap.String("batch_id", batchID.String()),
		zap.String("live", env.Live),
		zap.Int("items", len(outcomes)),
		zap.Duration("duration", time.Since(start)),
	)
	return &Ack{NotificationResponse: domain.NotificationAccepted}, outcomes, nil
}

// emit hands outcomes to the optional sinks. The batch has already been applied, so sink
// failures are logged and counted only.
func (s *NotificationService) emit(ctx context.Context, batchID uuid.UUID, outcomes []domain.Outcome) {
	if len(outcomes) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, batchID, outcomes); err != nil {
			observability.IncrementOutcomeSinkError("postgres")
			zap.L().Error("record outcomes failed", zap.String("batch_id", batchID.String()), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishOutcomes(ctx, batchID, outcomes); err != nil {
			observability.IncrementOutcomeSinkError("kafka")
			zap.L().Error("publish outcomes failed", zap.String("batch_id", batchID.String()), zap.Error(err))
		}
	}
}

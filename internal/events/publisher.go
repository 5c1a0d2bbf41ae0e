package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ayo6706/payment-notification/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutcomeEvent is the message published for every reconciled notification item.
type OutcomeEvent struct {
	BatchID          uuid.UUID `json:"batch_id"`
	PaymentReference string    `json:"payment_reference"`
	EventID          string    `json:"event_id"`
	TransactionType  string    `json:"transaction_type"`
	State            string    `json:"state"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason,omitempty"`
	Error            string    `json:"error,omitempty"`
	Version          int64     `json:"version,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Publisher writes reconciliation outcomes to a topic keyed by payment reference, so
// consumers see the outcomes of one payment in order.
type Publisher struct {
	writer MessageWriter
	now    func() time.Time
}

// NewKafkaWriter builds a writer for the outcome topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer, now: time.Now}
}

// PublishOutcomes publishes one message per outcome. Items without a payment reference
// never reached a payment and are not published.
func (p *Publisher) PublishOutcomes(ctx context.Context, batchID uuid.UUID, outcomes []domain.Outcome) error {
	at := p.now().UTC()
	msgs := make([]kafka.Message, 0, len(outcomes))
	for _, o := range outcomes {
		if o.PaymentReference == "" {
			continue
		}
		evt := OutcomeEvent{
			BatchID:          batchID,
			PaymentReference: o.PaymentReference,
			EventID:          o.ProviderEventID,
			TransactionType:  string(o.TransactionType),
			State:            string(o.State),
			Status:           string(o.Status),
			Reason:           o.Reason,
			Version:          o.Version,
			OccurredAt:       at,
		}
		if o.Err != nil {
			evt.Error = o.Err.Error()
		}
		value, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("encode outcome event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(o.PaymentReference),
			Value: value,
			Headers: []kafka.Header{
				{Key: "outcome", Value: []byte(o.Status)},
			},
		})
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d outcome events: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

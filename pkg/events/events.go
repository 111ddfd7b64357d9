package events

import (
	"context"
	"sync"
	"time"

	"yxplore/pkg/kafka"
	"yxplore/pkg/logger"
)

type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingConfirmed     Type = "booking.confirmed"
	BookingCancelled     Type = "booking.cancelled"
	BookingPaid          Type = "booking.paid"
	BookingPaymentFailed Type = "booking.payment_failed"
	BookingExpired       Type = "booking.expired"

	ProfileCreated   Type = "profile.created"
	KycStatusChanged Type = "kyc.status_changed"

	KycValidationCreated  Type = "kyc.validation.created"
	KycValidationApproved Type = "kyc.validation.approved"
	KycValidationRejected Type = "kyc.validation.rejected"

	MerchantAssigned   Type = "agency.merchant_assigned"
	MerchantUnassigned Type = "agency.merchant_unassigned"
	AgencyDeactivated  Type = "agency.deactivated"
)

const schemaVersion = "1"

// Event is a fact emitted after a committed state change.
type Event struct {
	Type        Type      `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Data        any       `json:"data,omitempty"`
}

func New(t Type, aggregateID string, data any) Event {
	return Event{Type: t, AggregateID: aggregateID, OccurredAt: time.Now().UTC(), Data: data}
}

// Publisher delivers events on a best-effort basis. Delivery failures are
// logged by the implementation and never undo the committed change.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
	timeout  time.Duration
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, source string, timeout time.Duration, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		source:   source,
		timeout:  timeout,
		log:      log.Component("events"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	msg, err := kafka.NewMessage().
		WithKey(event.AggregateID).
		WithValue(event).
		WithEventType(string(event.Type)).
		WithSource(p.source).
		WithSchemaVersion(schemaVersion).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		p.log.Error("Failed to encode event", "event_type", event.Type, "aggregate_id", event.AggregateID, "error", err)
		return
	}

	// Detached from the request so a client disconnect does not drop the event.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Error("Failed to publish event",
			"event_type", event.Type,
			"aggregate_id", event.AggregateID,
			"error", err,
		)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

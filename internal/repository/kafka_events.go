package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"LumenTrade/internal/domain/models"
	pkgkafka "LumenTrade/pkg/kafka"
)

// ExecutionEvent is the wire shape published for each submitted order.
type ExecutionEvent struct {
	EventID     string    `json:"event_id"`
	Pair        string    `json:"pair"`
	Side        string    `json:"side"`
	Quantity    string    `json:"quantity"`
	Price       string    `json:"price"`
	OfferID     int64     `json:"offer_id"`
	Status      string    `json:"status"`
	LedgerHash  string    `json:"ledger_hash"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// KafkaEventPublisher pushes execution events to a Kafka topic. Messages are
// keyed by pair so per-market ordering is preserved.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishExecution(ctx context.Context, intent models.OrderIntent, res models.ExecutionResult) error {
	event := ExecutionEvent{
		EventID:     uuid.NewString(),
		Pair:        intent.Pair.String(),
		Side:        string(intent.Side),
		Quantity:    intent.Quantity.String(),
		Price:       intent.Price.String(),
		OfferID:     intent.OfferID,
		Status:      string(res.Status),
		LedgerHash:  res.LedgerHash,
		ErrorDetail: res.ErrorDetail,
		Timestamp:   time.Now().UTC(),
	}
	return p.producer.Publish(ctx, p.topic, []byte(event.Pair), event)
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

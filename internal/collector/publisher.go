package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devdazzlee/southen-sweet-sub000/internal/analytics"
	"github.com/segmentio/kafka-go"
)

// Publisher fans accepted batches out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, batch analytics.Batch) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "tracking-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, batch analytics.Batch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(batch.SessionID), // session_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "website_id", Value: []byte(batch.WebsiteID)},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Package publisher hands sharing history entries to the outbound channel
// that delivers shares to recipients.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"trustverify/internal/sharing/models"
)

// LogPublisher writes entries to the structured log only.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, entry models.SharingHistory) error {
	p.logger.InfoContext(ctx, "sharing history",
		"history_id", entry.ID,
		"user_id", entry.UserID,
		"recipient_email", entry.RecipientEmail,
		"status", entry.Status,
		"share_name", entry.SharedData.Name != "",
		"share_phone", entry.SharedData.Phone != "",
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

// producer is the part of *kgo.Client the publisher uses.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaPublisher produces one JSON record per entry, keyed by user so a
// user's entries stay ordered within a partition.
type KafkaPublisher struct {
	client producer
	topic  string
}

// NewKafkaPublisher connects to brokers and produces to topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, entry models.SharingHistory) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal sharing history: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(entry.UserID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "status", Value: []byte(entry.Status)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce sharing history: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}

// Package events publishes lifecycle transitions to Kafka so downstream
// consumers (notification senders, reporting) can react out of band.
// Publishing is best-effort; the state transition itself never depends on
// the broker being reachable.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	DonationCreated     = "donation.created"
	DonationClaimed     = "donation.claimed"
	DonationStatusMoved = "donation.status-changed"
	DonationCompleted   = "donation.completed"
	AssignmentCreated   = "assignment.created"
	AssignmentMoved     = "assignment.status-changed"
)

type Event struct {
	Type     string    `json:"type"`
	EntityID string    `json:"entityId"`
	Actor    string    `json:"actor"`
	At       time.Time `json:"at"`
	Payload  any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	// Enabled reports whether events actually leave the process; the
	// coordinator uses it to stamp notificationSent on new assignments.
	Enabled() bool
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.EntityID), Value: b})
}

func (k *KafkaPublisher) Enabled() bool { return true }

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// Nop is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, e Event) error { return nil }
func (Nop) Enabled() bool                              { return false }
func (Nop) Close() error                               { return nil }

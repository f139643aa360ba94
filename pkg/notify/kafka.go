package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"corralx-backend/internal/models"

	"github.com/IBM/sarama"
)

// KafkaPublisher pushes lifecycle events onto a Kafka topic using a
// synchronous producer. It is called after the order transaction commits,
// so a send failure only loses the notification, never the state change.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a sync producer to the given brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("notify.NewKafkaPublisher: %w", err)
	}
	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(_ context.Context, eventName string, order *models.Order) error {
	payload, err := json.Marshal(NewEvent(eventName, order))
	if err != nil {
		return fmt.Errorf("notify.KafkaPublisher.Marshal: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("order-%d", order.ID)),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("notify.KafkaPublisher.Send: %w", err)
	}
	return nil
}

// Close releases the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

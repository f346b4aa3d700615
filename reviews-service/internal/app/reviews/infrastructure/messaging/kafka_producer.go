package messaging

import (
	"context"
	"fmt"
	"time"

	"coffeecompanion/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer обертка над Kafka writer для отправки событий оценок
// в топик rating_events (RATING_CREATED)
type KafkaProducer struct {
	writer      *kafka.Writer
	serviceName string
	topic       string
}

// NewKafkaProducer создает новый Kafka producer
func NewKafkaProducer(brokers []string, topic, serviceName string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:  kafka.TCP(brokers...),
		Topic: topic,
		// Ключ сообщения - productId: события одного товара идут
		// по порядку в одну партицию
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaProducer{
		writer:      writer,
		serviceName: serviceName,
		topic:       topic,
	}
}

// PublishMessage отправляет сообщение в Kafka
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	timer := metrics.NewKafkaProduceTimer(p.serviceName, p.topic)

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()
	return nil
}

// Close закрывает Kafka writer и освобождает ресурсы
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

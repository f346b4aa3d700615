package messaging

import (
	"context"
	"fmt"
	"time"

	"coffeecompanion/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer обертка над Kafka writer для отправки событий заказов
// в топик order_events (ORDER_STATUS_UPDATED, ORDER_CANCELLED)
type KafkaProducer struct {
	writer      *kafka.Writer
	serviceName string
	topic       string
}

// NewKafkaProducer создает новый Kafka producer
// brokers - список брокеров Kafka в формате ["host:port"]
func NewKafkaProducer(brokers []string, topic, serviceName string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:  kafka.TCP(brokers...),
		Topic: topic,
		// Ключ сообщения - orderId, порядок событий сохраняется
		// внутри одного заказа
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
// key используется для партиционирования (orderId либо productId)
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

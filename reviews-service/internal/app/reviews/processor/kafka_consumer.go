package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/reviews-service/internal/app/reviews/service"
	"coffeecompanion/pkg/logger"
	"coffeecompanion/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const consumerServiceName = "reviews-service"

// KafkaConsumer обрабатывает события из топика rating_events.
// Каждое событие запускает полный пересчет агрегата своего товара;
// пересчет идемпотентен, поэтому повторная доставка безвредна.
type KafkaConsumer struct {
	reader       *kafka.Reader
	aggregateSvc service.AggregateRecomputer
	topic        string
	groupID      string
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	aggregateSvc service.AggregateRecomputer,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    minBytes,
		MaxBytes:    maxBytes,
		StartOffset: kafka.LastOffset,
		// Настройки для автоматического коммита offset
		CommitInterval: time.Second,
		// Таймауты
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:       reader,
		aggregateSvc: aggregateSvc,
		topic:        topic,
		groupID:      groupID,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("Kafka consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn().Err(err).Msg("Error fetching message")
				time.Sleep(time.Second)
				continue
			}

			if err := c.processMessage(ctx, message); err != nil {
				metrics.RecordKafkaConsumeError(consumerServiceName, c.topic)
				logger.Error().Err(err).Msg("Error processing message")
				// Offset не коммитится, сообщение будет обработано повторно
			} else {
				metrics.RecordKafkaMessageConsumed(consumerServiceName, c.topic, c.groupID)
				if err := c.reader.CommitMessages(ctx, message); err != nil {
					logger.Error().Err(err).Msg("Error committing message")
				}
			}
		}
	}
}

// processMessage обрабатывает одно сообщение из Kafka
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.RatingEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal rating event: %w", err)
	}

	logger.Debug().
		Str("event_type", event.EventType).
		Str("product_id", event.ProductID).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received rating event")

	if event.ProductID == "" {
		return fmt.Errorf("rating event without product id")
	}

	if _, err := c.aggregateSvc.Recompute(ctx, event.ProductID, service.TriggerKafka); err != nil {
		return fmt.Errorf("failed to recompute aggregate: %w", err)
	}

	return nil
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}

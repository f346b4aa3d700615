package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP метрики (общие для обоих сервисов)
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// MongoDB метрики
// =============================================================================

// MongoOperationDuration - время выполнения операций с MongoDB
var MongoOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "mongo_operation_duration_seconds",
		Help:    "Duration of MongoDB operations in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "collection"},
)

// MongoErrors - счётчик ошибок MongoDB
var MongoErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mongo_errors_total",
		Help: "Total number of MongoDB errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis метрики (кеш агрегатов рейтингов)
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaMessagesConsumed - полученные сообщения
var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"}, // operation: produce, consume
)

// =============================================================================
// Бизнес-метрики Orders Service
// =============================================================================

// OrdersCancelled - отменённые владельцем заказы
var OrdersCancelled = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of orders self-cancelled by their owners",
	},
)

// OrderCancelRejected - отклонённые попытки отмены
var OrderCancelRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "orders_cancel_rejected_total",
		Help: "Total number of rejected cancellation attempts",
	},
	[]string{"reason"}, // not_pending, window_expired
)

// OrderStatusTransitions - применённые переходы статусов
var OrderStatusTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Total number of applied order status transitions",
	},
	[]string{"from", "to"},
)

// InventoryStockLevel - количество позиций склада по уровням запаса
var InventoryStockLevel = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "inventory_items_by_stock_status",
		Help: "Number of active inventory items per stock status",
	},
	[]string{"status"}, // critical, low, normal
)

// =============================================================================
// Бизнес-метрики Reviews Service
// =============================================================================

// ReviewsSubmitted - принятые батчи отзывов
var ReviewsSubmitted = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "reviews_submitted_total",
		Help: "Total number of committed review submissions",
	},
)

// ReviewsRejected - отклонённые на валидации отзывы
var ReviewsRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_rejected_total",
		Help: "Total number of rejected review submissions",
	},
	[]string{"reason"},
)

// ProductRatingsCreated - созданные оценки товаров
var ProductRatingsCreated = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "product_ratings_created_total",
		Help: "Total number of product rating rows created",
	},
)

// RatingValues - распределение оценок
var RatingValues = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "product_rating_values",
		Help:    "Distribution of submitted product rating values",
		Buckets: []float64{1, 2, 3, 4, 5},
	},
)

// AggregatesRecomputed - пересчёты агрегатов рейтинга
var AggregatesRecomputed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rating_aggregates_recomputed_total",
		Help: "Total number of product rating aggregate recomputations",
	},
	[]string{"trigger"}, // submission, kafka, cron, fallback
)

// AggregateRecomputeDuration - время полного пересчёта агрегата
var AggregateRecomputeDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "rating_aggregate_recompute_duration_seconds",
		Help:    "Duration of full aggregate recomputations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
)

package mocks

import (
	"context"
	"sync"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"

	"github.com/stretchr/testify/mock"
)

// MockOrderRepository мок для OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) GetByID(ctx context.Context, orderID string) (*entity.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

// MockRatingRepository мок для RatingRepository
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) GetByProductID(ctx context.Context, productID string) ([]entity.ProductRating, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ProductRating), args.Error(1)
}

func (m *MockRatingRepository) ExistsFor(ctx context.Context, orderID, productID, userID string) (bool, error) {
	args := m.Called(ctx, orderID, productID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRatingRepository) DistinctProductIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRatingRepository) SubmitBatch(ctx context.Context, orderRating *entity.OrderRating, productRatings []entity.ProductRating) error {
	args := m.Called(ctx, orderRating, productRatings)
	return args.Error(0)
}

// MockAggregateRepository мок для AggregateRepository
type MockAggregateRepository struct {
	mock.Mock
}

func (m *MockAggregateRepository) Get(ctx context.Context, productID string) (*entity.ProductAggregate, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductAggregate), args.Error(1)
}

func (m *MockAggregateRepository) Upsert(ctx context.Context, aggregate *entity.ProductAggregate) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

// MockRatingCacheRepository мок для RatingCacheRepository
type MockRatingCacheRepository struct {
	mock.Mock
}

func (m *MockRatingCacheRepository) Get(ctx context.Context, productID string) (*entity.ProductAggregate, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductAggregate), args.Error(1)
}

func (m *MockRatingCacheRepository) Set(ctx context.Context, aggregate *entity.ProductAggregate) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

// MockMessagePublisher мок для infrastructure.MessagePublisher.
// Сообщения публикуются из нескольких горутин, поэтому срез под мьютексом.
type MockMessagePublisher struct {
	mock.Mock
	mu       sync.Mutex
	messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.messages = append(m.messages, value)
	m.mu.Unlock()
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// PublishedMessages возвращает копию накопленных сообщений
func (m *MockMessagePublisher) PublishedMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.messages))
	copy(out, m.messages)
	return out
}

func (m *MockMessagePublisher) Close() error {
	return nil
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"coffeecompanion/reviews-service/internal/app/reviews/entity"
	"coffeecompanion/pkg/metrics"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const serviceName = "reviews-service"

// RatingDocumentID детерминированно выводит _id оценки товара из тройки
// (orderId, productId, userId). Повторная запись той же тройки попадает в
// тот же документ, что делает вставку идемпотентной и закрывает гонку
// одновременных дубликатов.
func RatingDocumentID(orderID, productID, userID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(orderID+":"+productID+":"+userID)).String()
}

type ratingRepository struct {
	db             *mongo.Database
	productRatings *mongo.Collection
	legacyReviews  *mongo.Collection
	orderRatings   *mongo.Collection
	orders         *mongo.Collection
}

// NewRatingRepository создает репозиторий оценок поверх обеих коллекций
func NewRatingRepository(db *mongo.Database) RatingRepository {
	return &ratingRepository{
		db:             db,
		productRatings: db.Collection("productRatings"),
		legacyReviews:  db.Collection("reviews"),
		orderRatings:   db.Collection("orderRatings"),
		orders:         db.Collection("orders"),
	}
}

// GetByProductID возвращает объединенные оценки товара из обеих коллекций,
// новые первыми. Сортировка на клиенте: составного индекса по паре
// (productId, timestamp) в историческом хранилище нет.
func (r *ratingRepository) GetByProductID(ctx context.Context, productID string) ([]entity.ProductRating, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpFind, "productRatings")
	defer timer.ObserveDuration()

	current, err := r.findRatings(ctx, r.productRatings, bson.M{"productId": productID})
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to find product ratings: %w", err)
	}

	legacy, err := r.findRatings(ctx, r.legacyReviews, bson.M{
		"$or": []bson.M{{"menuItemId": productID}, {"productId": productID}},
	})
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpFind)
		return nil, fmt.Errorf("failed to find legacy reviews: %w", err)
	}

	merged := append(current, legacy...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	return merged, nil
}

func (r *ratingRepository) findRatings(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]entity.ProductRating, error) {
	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rawDocs []bson.M
	if err := cursor.All(ctx, &rawDocs); err != nil {
		return nil, err
	}

	ratings := make([]entity.ProductRating, 0, len(rawDocs))
	for _, raw := range rawDocs {
		ratings = append(ratings, DecodeProductRating(documentID(raw), raw))
	}

	return ratings, nil
}

// ExistsFor проверяет, оценивал ли пользователь товар в рамках заказа.
// Проверяются обе коллекции; это попутная защита от дубликатов, основную
// гарантию дает детерминированный _id.
func (r *ratingRepository) ExistsFor(ctx context.Context, orderID, productID, userID string) (bool, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpGet, "productRatings")
	defer timer.ObserveDuration()

	count, err := r.productRatings.CountDocuments(ctx, bson.M{
		"orderId":   orderID,
		"productId": productID,
		"userId":    userID,
	})
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpGet)
		return false, fmt.Errorf("failed to check product ratings: %w", err)
	}
	if count > 0 {
		return true, nil
	}

	count, err = r.legacyReviews.CountDocuments(ctx, bson.M{
		"orderId": orderID,
		"userId":  userID,
		"$or":     []bson.M{{"menuItemId": productID}, {"productId": productID}},
	})
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpGet)
		return false, fmt.Errorf("failed to check legacy reviews: %w", err)
	}

	return count > 0, nil
}

// DistinctProductIDs возвращает все товары, по которым есть хотя бы одна
// оценка в любой из коллекций. Используется сверкой агрегатов.
func (r *ratingRepository) DistinctProductIDs(ctx context.Context) ([]string, error) {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpDistinct, "productRatings")
	defer timer.ObserveDuration()

	seen := map[string]struct{}{}

	for _, source := range []struct {
		coll  *mongo.Collection
		field string
	}{
		{r.productRatings, "productId"},
		{r.legacyReviews, "menuItemId"},
		{r.legacyReviews, "productId"},
	} {
		values, err := source.coll.Distinct(ctx, source.field, bson.M{})
		if err != nil {
			metrics.RecordMongoError(serviceName, metrics.MongoOpDistinct)
			return nil, fmt.Errorf("failed to list distinct product ids: %w", err)
		}
		for _, v := range values {
			if id, ok := v.(string); ok && id != "" {
				seen[id] = struct{}{}
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// SubmitBatch фиксирует отзыв одной транзакцией: вставка orderRatings,
// пометка заказа isRated и вставка всех оценок товаров. Либо применяется
// все, либо ничего - частичная запись невозможна, при аборте транзакции
// повтор безопасен.
func (r *ratingRepository) SubmitBatch(ctx context.Context, orderRating *entity.OrderRating, productRatings []entity.ProductRating) error {
	timer := metrics.NewMongoTimer(serviceName, metrics.MongoOpTxn, "orderRatings")
	defer timer.ObserveDuration()

	session, err := r.db.Client().StartSession()
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpTxn)
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.orderRatings.InsertOne(sc, orderRating); err != nil {
			return nil, fmt.Errorf("failed to insert order rating: %w", err)
		}

		update := bson.M{"$set": bson.M{
			"isRated":     true,
			"lastRatedAt": time.Now(),
		}}
		if _, err := r.orders.UpdateOne(sc, bson.M{"_id": orderRating.OrderID}, update); err != nil {
			return nil, fmt.Errorf("failed to mark order rated: %w", err)
		}

		for i := range productRatings {
			if _, err := r.productRatings.InsertOne(sc, &productRatings[i]); err != nil {
				return nil, fmt.Errorf("failed to insert product rating: %w", err)
			}
		}

		return nil, nil
	})
	if err != nil {
		metrics.RecordMongoError(serviceName, metrics.MongoOpTxn)
		return err
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/sentinel"
)

// MongoResultRepository implements ResultRepository
type MongoResultRepository struct {
	collection *mongo.Collection
}

// NewMongoResultRepository creates a new validation result repository
func NewMongoResultRepository(db *mongo.Database, logger logger.Logger) repository.ResultRepository {
	collection := db.Collection("validation_results")

	ctx := context.Background()
	keyIndex := mongo.IndexModel{
		Keys:    bson.M{"key": 1},
		Options: options.Index().SetUnique(true),
	}
	invalidIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "flightId", Value: 1},
			{Key: "is_valid", Value: 1},
			{Key: "hbnb_number", Value: 1},
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{keyIndex, invalidIndex}); err != nil {
		logger.Warn("Failed to create result indexes", "error", err)
	}

	return &MongoResultRepository{collection: collection}
}

// Upsert replaces the result of one record; running it twice is harmless
func (r *MongoResultRepository) Upsert(ctx context.Context, result *entity.ValidationResult) error {
	result.Key = entity.RecordKey(result.FlightID, result.HbnbNumber)
	result.Stale = false

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"key": result.Key}, result, opts); err != nil {
		return fmt.Errorf("failed to upsert result %s: %w", result.Key, err)
	}
	return nil
}

// Get finds the result of one record
func (r *MongoResultRepository) Get(ctx context.Context, flightID string, hbnb int) (*entity.ValidationResult, error) {
	var result entity.ValidationResult
	key := entity.RecordKey(flightID, hbnb)
	if err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&result); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("result %s: %w", key, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &result, nil
}

// MarkStale flags a result whose record text was replaced
func (r *MongoResultRepository) MarkStale(ctx context.Context, flightID string, hbnb int) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"key": entity.RecordKey(flightID, hbnb)},
		bson.M{"$set": bson.M{"stale": true}},
	)
	return err
}

// ListByFlight returns every result of a flight ordered by hbnb
func (r *MongoResultRepository) ListByFlight(ctx context.Context, flightID string) ([]*entity.ValidationResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "hbnb_number", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"flightId": flightID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*entity.ValidationResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ListInvalid returns one page of records with violations, ordered by hbnb.
// page starts at 1.
func (r *MongoResultRepository) ListInvalid(ctx context.Context, flightID string, page, size int) ([]*entity.ValidationResult, int64, error) {
	filter := bson.M{
		"flightId": flightID,
		"outcome":  bson.M{"$ne": string(hbpr.OutcomeValid)},
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "hbnb_number", Value: 1}}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var results []*entity.ValidationResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

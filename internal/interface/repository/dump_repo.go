package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/sentinel"
)

// staleProcessingAfter is how long a dump may stay PROCESSING before it is
// handed out again
const staleProcessingAfter = 5 * time.Minute

// MongoDumpRepository implements the DumpRepository interface
type MongoDumpRepository struct {
	collection *mongo.Collection
	logger     logger.Logger
}

// NewMongoDumpRepository creates a new MongoDB dump repository
func NewMongoDumpRepository(db *mongo.Database, logger logger.Logger) repository.DumpRepository {
	collection := db.Collection("dumps")

	ctx := context.Background()

	processStatusIndex := mongo.IndexModel{
		Keys: bson.M{"processStatus": 1},
	}

	flightIndex := mongo.IndexModel{
		Keys: bson.M{"flightId": 1},
	}

	// Compound index for finding unprocessed dumps oldest first
	unprocessedIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "processStatus", Value: 1},
			{Key: "receivedAt", Value: 1},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		processStatusIndex,
		flightIndex,
		unprocessedIndex,
	}); err != nil {
		logger.Warn("Failed to create dump indexes", "error", err)
	}

	return &MongoDumpRepository{
		collection: collection,
		logger:     logger,
	}
}

// Save stores a new dump
func (r *MongoDumpRepository) Save(ctx context.Context, dump *entity.Dump) error {
	if dump.ProcessStatus == "" {
		dump.ProcessStatus = entity.StatusPending
	}

	if _, err := r.collection.InsertOne(ctx, dump); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("dump %s: %w", dump.ID, sentinel.ErrConflict)
		}
		if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
			return fmt.Errorf("failed to save dump: %v: %w", err, sentinel.ErrUnavailable)
		}
		return fmt.Errorf("failed to save dump: %w", err)
	}
	return nil
}

// FindByID finds a dump by ID
func (r *MongoDumpRepository) FindByID(ctx context.Context, id string) (*entity.Dump, error) {
	var dump entity.Dump
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&dump)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("dump %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &dump, nil
}

// FindUnprocessed finds PENDING dumps, oldest first
func (r *MongoDumpRepository) FindUnprocessed(ctx context.Context, limit int) ([]*entity.Dump, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"processStatus": ""},
			{"processStatus": entity.StatusPending},
			{"processStatus": bson.M{"$exists": false}},
		},
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "receivedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var dumps []*entity.Dump
	if err := cursor.All(ctx, &dumps); err != nil {
		return nil, err
	}

	return dumps, nil
}

// UpdateStatus updates just the status and started time
func (r *MongoDumpRepository) UpdateStatus(ctx context.Context, id string, status string, startedAt time.Time) error {
	set := bson.M{"processStatus": status}

	// Only set processStartedAt when moving to PROCESSING
	if status == entity.StatusProcessing && !startedAt.IsZero() {
		set["processStartedAt"] = startedAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("dump %s: %w", id, sentinel.ErrNotFound)
	}

	return nil
}

// UpdateProcessSteps records pipeline progress
func (r *MongoDumpRepository) UpdateProcessSteps(ctx context.Context, id string, steps entity.ProcessSteps) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"processSteps": steps}},
	)
	return err
}

// MarkAsProcessed marks a dump as processed with full details
func (r *MongoDumpRepository) MarkAsProcessed(ctx context.Context, id, status, processorType, flightID, errorDetail string, extractedData map[string]interface{}) error {
	set := bson.M{
		"processedAt":   time.Now(),
		"processStatus": status,
		"processorType": processorType,
	}

	if flightID != "" {
		set["flightId"] = flightID
	}
	if len(extractedData) > 0 {
		set["extractedData"] = extractedData
	}
	if errorDetail != "" {
		set["errorDetail"] = errorDetail
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to mark as processed: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("dump %s: %w", id, sentinel.ErrNotFound)
	}

	return nil
}

// ResetProcessingDumps resets dumps stuck in PROCESSING state back to PENDING
func (r *MongoDumpRepository) ResetProcessingDumps(ctx context.Context) error {
	staleTime := time.Now().Add(-staleProcessingAfter)

	filter := bson.M{
		"processStatus": entity.StatusProcessing,
		"$or": []bson.M{
			{"processStartedAt": bson.M{"$lt": staleTime}},
			{"processStartedAt": bson.M{"$exists": false}},
		},
	}

	update := bson.M{
		"$set": bson.M{
			"processStatus": entity.StatusPending,
			"errorDetail":   "Reset from stale PROCESSING state",
		},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return err
	}

	if result.ModifiedCount > 0 {
		r.logger.Info("Reset stale processing dumps", "count", result.ModifiedCount)
	}

	return nil
}

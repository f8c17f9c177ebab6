package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/sentinel"
)

// MongoRecordRepository implements RecordRepository over four collections
type MongoRecordRepository struct {
	records  *mongo.Collection
	simple   *mongo.Collection
	versions *mongo.Collection
	missing  *mongo.Collection
	logger   logger.Logger
}

// NewMongoRecordRepository creates a new record repository
func NewMongoRecordRepository(db *mongo.Database, logger logger.Logger) repository.RecordRepository {
	r := &MongoRecordRepository{
		records:  db.Collection("passenger_records"),
		simple:   db.Collection("simple_records"),
		versions: db.Collection("record_versions"),
		missing:  db.Collection("missing_numbers"),
		logger:   logger,
	}

	ctx := context.Background()
	byKey := mongo.IndexModel{
		Keys:    bson.M{"key": 1},
		Options: options.Index().SetUnique(true),
	}
	byFlight := mongo.IndexModel{
		Keys: bson.D{
			{Key: "flightId", Value: 1},
			{Key: "hbnbNumber", Value: 1},
		},
	}

	for name, coll := range map[string]*mongo.Collection{"records": r.records, "simple": r.simple} {
		if _, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{byKey, byFlight}); err != nil {
			logger.Warn("Failed to create record indexes", "collection", name, "error", err)
		}
	}
	if _, err := r.versions.Indexes().CreateOne(ctx, byFlight); err != nil {
		logger.Warn("Failed to create version index", "error", err)
	}
	if _, err := r.missing.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"flightId": 1},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		logger.Warn("Failed to create missing-number index", "error", err)
	}

	return r
}

// SaveFull stores a full record. Changed content first copies the stored
// record into the version history.
func (r *MongoRecordRepository) SaveFull(ctx context.Context, rec *entity.PassengerRecord) (bool, error) {
	now := time.Now()
	rec.Key = entity.RecordKey(rec.FlightID, rec.HbnbNumber)

	replaced := false
	var existing entity.PassengerRecord
	err := r.records.FindOne(ctx, bson.M{"key": rec.Key}).Decode(&existing)
	switch {
	case err == nil:
		rec.CreatedAt = existing.CreatedAt
		rec.Version = existing.Version
		if existing.RawText != rec.RawText {
			if _, err := r.versions.InsertOne(ctx, entity.NewRecordVersion(&existing, now)); err != nil {
				return false, fmt.Errorf("failed to back up record %s: %w", rec.Key, err)
			}
			rec.Version = existing.Version + 1
			replaced = true
		}
	case errors.Is(err, mongo.ErrNoDocuments):
		rec.CreatedAt = now
		rec.Version = 1
	default:
		return false, fmt.Errorf("failed to load record %s: %w", rec.Key, err)
	}
	rec.UpdatedAt = now

	updateDoc := bson.M{
		"key":        rec.Key,
		"flightId":   rec.FlightID,
		"hbnbNumber": rec.HbnbNumber,
		"rawText":    rec.RawText,
		"dumpId":     rec.DumpID,
		"version":    rec.Version,
		"createdAt":  rec.CreatedAt,
		"updatedAt":  rec.UpdatedAt,
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.records.UpdateOne(ctx, bson.M{"key": rec.Key}, bson.M{"$set": updateDoc}, opts); err != nil {
		return false, fmt.Errorf("failed to save record %s: %w", rec.Key, err)
	}

	if _, err := r.simple.DeleteOne(ctx, bson.M{"key": rec.Key}); err != nil {
		return replaced, fmt.Errorf("failed to drop simple record %s: %w", rec.Key, err)
	}

	return replaced, nil
}

// GetFull finds one full record
func (r *MongoRecordRepository) GetFull(ctx context.Context, flightID string, hbnb int) (*entity.PassengerRecord, error) {
	var rec entity.PassengerRecord
	key := entity.RecordKey(flightID, hbnb)
	if err := r.records.FindOne(ctx, bson.M{"key": key}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("record %s: %w", key, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

// ListFull returns every full record of a flight ordered by hbnb
func (r *MongoRecordRepository) ListFull(ctx context.Context, flightID string) ([]*entity.PassengerRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "hbnbNumber", Value: 1}})
	cursor, err := r.records.Find(ctx, bson.M{"flightId": flightID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []*entity.PassengerRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ListVersions returns the replaced contents of a record, oldest first
func (r *MongoRecordRepository) ListVersions(ctx context.Context, flightID string, hbnb int) ([]*entity.RecordVersion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: 1}})
	cursor, err := r.versions.Find(ctx, bson.M{"flightId": flightID, "hbnbNumber": hbnb}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var versions []*entity.RecordVersion
	if err := cursor.All(ctx, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// SaveSimple stores a placeholder record unless a full record exists
func (r *MongoRecordRepository) SaveSimple(ctx context.Context, rec *entity.SimpleRecord) error {
	rec.Key = entity.RecordKey(rec.FlightID, rec.HbnbNumber)

	n, err := r.records.CountDocuments(ctx, bson.M{"key": rec.Key})
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("full record %s exists: %w", rec.Key, sentinel.ErrConflict)
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	opts := options.Update().SetUpsert(true)
	_, err = r.simple.UpdateOne(ctx, bson.M{"key": rec.Key}, bson.M{"$set": bson.M{
		"key":        rec.Key,
		"flightId":   rec.FlightID,
		"hbnbNumber": rec.HbnbNumber,
		"rawText":    rec.RawText,
		"createdAt":  rec.CreatedAt,
	}}, opts)
	return err
}

// DeleteSimple removes a placeholder record
func (r *MongoRecordRepository) DeleteSimple(ctx context.Context, flightID string, hbnb int) error {
	key := entity.RecordKey(flightID, hbnb)
	result, err := r.simple.DeleteOne(ctx, bson.M{"key": key})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("simple record %s: %w", key, sentinel.ErrNotFound)
	}
	return nil
}

// ListSimple returns every placeholder record of a flight
func (r *MongoRecordRepository) ListSimple(ctx context.Context, flightID string) ([]*entity.SimpleRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "hbnbNumber", Value: 1}})
	cursor, err := r.simple.Find(ctx, bson.M{"flightId": flightID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []*entity.SimpleRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ObservedNumbers returns every hbnb stored for a flight, full or simple
func (r *MongoRecordRepository) ObservedNumbers(ctx context.Context, flightID string) ([]int, error) {
	seen := make(map[int]struct{})
	for _, coll := range []*mongo.Collection{r.records, r.simple} {
		values, err := coll.Distinct(ctx, "hbnbNumber", bson.M{"flightId": flightID})
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			switch n := v.(type) {
			case int32:
				seen[int(n)] = struct{}{}
			case int64:
				seen[int(n)] = struct{}{}
			case float64:
				seen[int(n)] = struct{}{}
			}
		}
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// SaveMissing upserts the missing-number set of a flight
func (r *MongoRecordRepository) SaveMissing(ctx context.Context, missing *entity.MissingNumbers) error {
	opts := options.Update().SetUpsert(true)
	_, err := r.missing.UpdateOne(ctx, bson.M{"flightId": missing.FlightID}, bson.M{"$set": missing}, opts)
	return err
}

// GetMissing loads the missing-number set of a flight
func (r *MongoRecordRepository) GetMissing(ctx context.Context, flightID string) (*entity.MissingNumbers, error) {
	var missing entity.MissingNumbers
	if err := r.missing.FindOne(ctx, bson.M{"flightId": flightID}).Decode(&missing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("missing numbers of %s: %w", flightID, sentinel.ErrNotFound)
		}
		return nil, err
	}
	return &missing, nil
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/sentinel"
)

const (
	testFlight  = "CA984_25JUL25_LAX"
	recordsNS   = "hbpr.passenger_records"
	resultsNS   = "hbpr.validation_results"
	recordText1 = ">HBPR: CA984/25JUL25*LAX,1\n  1. ZHANG/WEI MR"
	recordText2 = ">HBPR: CA984/25JUL25*LAX,1\n  1. ZHANG/WEI MR  BN012"
)

// newMockRecordRepo builds the repository before any response is queued,
// so the index builds fail quietly and leave the queue to the test
func newMockRecordRepo(mt *mtest.T) *MongoRecordRepository {
	repo := NewMongoRecordRepository(mt.DB, logger.NewNop()).(*MongoRecordRepository)
	mt.ClearEvents()
	return repo
}

func commands(mt *mtest.T) []string {
	var names []string
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

func storedRecord(text string, version int) bson.D {
	return bson.D{
		{Key: "key", Value: entity.RecordKey(testFlight, 1)},
		{Key: "flightId", Value: testFlight},
		{Key: "hbnbNumber", Value: 1},
		{Key: "rawText", Value: text},
		{Key: "version", Value: version},
		{Key: "createdAt", Value: time.Date(2025, time.July, 24, 8, 0, 0, 0, time.UTC)},
	}
}

func newRecord(text string) *entity.PassengerRecord {
	return &entity.PassengerRecord{FlightID: testFlight, HbnbNumber: 1, RawText: text, DumpID: "dump-1"}
}

func TestSaveFull(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("new record starts at version one", func(mt *mtest.T) {
		repo := newMockRecordRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, recordsNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		rec := newRecord(recordText1)
		replaced, err := repo.SaveFull(ctx, rec)
		require.NoError(mt, err)

		assert.False(mt, replaced)
		assert.Equal(mt, 1, rec.Version)
		assert.Equal(mt, entity.RecordKey(testFlight, 1), rec.Key)
		assert.Equal(mt, []string{"find", "update", "delete"}, commands(mt))
	})

	mt.Run("changed text archives the stored record", func(mt *mtest.T) {
		repo := newMockRecordRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, recordsNS, mtest.FirstBatch, storedRecord(recordText1, 2)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		rec := newRecord(recordText2)
		replaced, err := repo.SaveFull(ctx, rec)
		require.NoError(mt, err)

		assert.True(mt, replaced)
		assert.Equal(mt, 3, rec.Version)
		assert.Equal(mt, time.Date(2025, time.July, 24, 8, 0, 0, 0, time.UTC), rec.CreatedAt.UTC())

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 4)
		insert := events[1]
		assert.Equal(mt, "insert", insert.CommandName)
		assert.Equal(mt, "record_versions", insert.Command.Lookup("insert").StringValue())
		archived := insert.Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, recordText1, archived.Lookup("rawText").StringValue())
		assert.Equal(mt, int64(2), archived.Lookup("version").AsInt64())
	})

	mt.Run("identical text keeps the version", func(mt *mtest.T) {
		repo := newMockRecordRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, recordsNS, mtest.FirstBatch, storedRecord(recordText1, 2)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		rec := newRecord(recordText1)
		replaced, err := repo.SaveFull(ctx, rec)
		require.NoError(mt, err)

		assert.False(mt, replaced)
		assert.Equal(mt, 2, rec.Version)
		assert.Equal(mt, []string{"find", "update", "delete"}, commands(mt))
	})

	mt.Run("failed archive leaves the record untouched", func(mt *mtest.T) {
		repo := newMockRecordRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, recordsNS, mtest.FirstBatch, storedRecord(recordText1, 1)),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}),
		)

		_, err := repo.SaveFull(ctx, newRecord(recordText2))
		require.Error(mt, err)
		assert.Equal(mt, []string{"find", "insert"}, commands(mt))
	})
}

func TestSaveSimple(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("full record wins", func(mt *mtest.T) {
		repo := newMockRecordRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, recordsNS, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: int32(1)}}))

		err := repo.SaveSimple(ctx, entity.NewSimpleRecord(testFlight, 1, ""))
		assert.ErrorIs(mt, err, sentinel.ErrConflict)
		assert.Equal(mt, []string{"aggregate"}, commands(mt))
	})

	mt.Run("placeholder is upserted", func(mt *mtest.T) {
		repo := newMockRecordRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, recordsNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		rec := entity.NewSimpleRecord(testFlight, 4, "")
		require.NoError(mt, repo.SaveSimple(ctx, rec))
		assert.Equal(mt, entity.RecordKey(testFlight, 4), rec.Key)
		assert.False(mt, rec.CreatedAt.IsZero())

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "simple_records", events[1].Command.Lookup("update").StringValue())
	})

	mt.Run("deleting an absent placeholder", func(mt *mtest.T) {
		repo := newMockRecordRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.DeleteSimple(ctx, testFlight, 4)
		assert.ErrorIs(mt, err, sentinel.ErrNotFound)
	})
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/sentinel"
)

func newMockResultRepo(mt *mtest.T) *MongoResultRepository {
	repo := NewMongoResultRepository(mt.DB, logger.NewNop()).(*MongoResultRepository)
	mt.ClearEvents()
	return repo
}

func storedResult(hbnb int, outcome hbpr.Outcome) bson.D {
	return bson.D{
		{Key: "key", Value: entity.RecordKey(testFlight, hbnb)},
		{Key: "flightId", Value: testFlight},
		{Key: "hbnb_number", Value: hbnb},
		{Key: "outcome", Value: string(outcome)},
	}
}

func TestListInvalid(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("second page", func(mt *mtest.T) {
		repo := newMockResultRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, resultsNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: int32(3)}}),
			mtest.CreateCursorResponse(0, resultsNS, mtest.FirstBatch, storedResult(6, hbpr.OutcomeParseFailed)),
		)

		items, total, err := repo.ListInvalid(ctx, testFlight, 2, 2)
		require.NoError(mt, err)

		assert.Equal(mt, int64(3), total)
		require.Len(mt, items, 1)
		assert.Equal(mt, 6, items[0].HbnbNumber)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		find := events[1].Command
		assert.Equal(mt, "find", events[1].CommandName)
		assert.Equal(mt, int64(2), find.Lookup("skip").AsInt64())
		assert.Equal(mt, int64(2), find.Lookup("limit").AsInt64())
		assert.Equal(mt, testFlight, find.Lookup("filter", "flightId").StringValue())
		assert.Equal(mt, string(hbpr.OutcomeValid), find.Lookup("filter", "outcome", "$ne").StringValue())
		assert.Equal(mt, int64(1), find.Lookup("sort", "hbnb_number").AsInt64())
	})

	mt.Run("first page skips nothing", func(mt *mtest.T) {
		repo := newMockResultRepo(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, resultsNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, resultsNS, mtest.FirstBatch,
				storedResult(2, hbpr.OutcomeInvalid), storedResult(3, hbpr.OutcomeInvalid)),
		)

		items, _, err := repo.ListInvalid(ctx, testFlight, 1, 20)
		require.NoError(mt, err)
		require.Len(mt, items, 2)
		assert.Equal(mt, 2, items[0].HbnbNumber)

		find := mt.GetAllStartedEvents()[1].Command
		assert.Equal(mt, int64(0), find.Lookup("skip").AsInt64())
		assert.Equal(mt, int64(20), find.Lookup("limit").AsInt64())
	})
}

func TestResultGet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unknown record", func(mt *mtest.T) {
		repo := newMockResultRepo(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, resultsNS, mtest.FirstBatch))

		_, err := repo.Get(context.Background(), testFlight, 9)
		assert.ErrorIs(mt, err, sentinel.ErrNotFound)
	})

	mt.Run("upsert clears the stale flag", func(mt *mtest.T) {
		repo := newMockResultRepo(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		res := &entity.ValidationResult{FlightID: testFlight, HbnbNumber: 2, Stale: true}
		require.NoError(mt, repo.Upsert(context.Background(), res))
		assert.False(mt, res.Stale)

		update := mt.GetAllStartedEvents()[0].Command
		stmt := update.Lookup("updates").Array().Index(0).Value().Document()
		assert.Equal(mt, entity.RecordKey(testFlight, 2), stmt.Lookup("q", "key").StringValue())
		assert.True(mt, stmt.Lookup("upsert").Boolean())
	})
}

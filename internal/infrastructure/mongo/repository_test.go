package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/sngm3741/product-page/internal/public/domain"
)

const reviewsNS = "test.reviews"

func reviewDoc(seq int, name string, rating int, date time.Time) bson.D {
	return bson.D{
		{Key: "seq", Value: seq},
		{Key: "description", Value: name + " review"},
		{Key: "rating", Value: rating},
		{Key: "date", Value: date},
		{Key: "author", Value: bson.D{{Key: "name", Value: name}}},
		{Key: "reviewRating", Value: seq * 2},
	}
}

func insertedSeqs(t *testing.T, cmd bson.Raw) []int32 {
	t.Helper()
	values, err := cmd.Lookup("documents").Array().Values()
	require.NoError(t, err)
	seqs := make([]int32, 0, len(values))
	for _, v := range values {
		seqs = append(seqs, v.Document().Lookup("seq").Int32())
	}
	return seqs
}

func TestReviewRepositoryLoad(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("decodes in seq order", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, reviewsNS, mtest.FirstBatch,
				reviewDoc(0, "Ann", 5, date),
				reviewDoc(1, "Bob", 2, date.AddDate(0, 0, 1)),
			),
			mtest.CreateCursorResponse(0, reviewsNS, mtest.NextBatch,
				reviewDoc(2, "Cy", 4, date.AddDate(0, 0, 2)),
			),
		)
		repo := NewReviewRepository(mt.DB, "reviews")

		got, err := repo.Load(context.Background())
		require.NoError(mt, err)
		require.Len(mt, got, 3)
		assert.Equal(mt, "Ann", got[0].Author.Name)
		assert.Equal(mt, 2, got[1].Rating)
		assert.Equal(mt, 4, got[2].Popularity)
		assert.True(mt, got[2].Date.Equal(date.AddDate(0, 0, 2)))

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, "find", find.CommandName)
		assert.Equal(mt, int32(1), find.Command.Lookup("sort", "seq").Int32())
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, reviewsNS, mtest.FirstBatch))
		repo := NewReviewRepository(mt.DB, "reviews")

		got, err := repo.Load(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, got)
		assert.Empty(mt, got)
	})

	mt.Run("find error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))
		repo := NewReviewRepository(mt.DB, "reviews")

		_, err := repo.Load(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "find reviews")
	})
}

func TestReviewRepositoryInsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.Review{
		{Description: "a", Rating: 5, Date: date, Author: domain.Author{Name: "Ann"}},
		{Description: "b", Rating: 3, Date: date, Author: domain.Author{Name: "Bob"}},
	}

	mt.Run("continues after the last seq", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, reviewsNS, mtest.FirstBatch, reviewDoc(4, "Old", 1, date)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
		)
		repo := NewReviewRepository(mt.DB, "reviews")

		n, err := repo.Insert(context.Background(), records)
		require.NoError(mt, err)
		assert.Equal(mt, 2, n)

		last := mt.GetStartedEvent()
		require.NotNil(mt, last)
		assert.Equal(mt, "find", last.CommandName)
		assert.Equal(mt, int32(-1), last.Command.Lookup("sort", "seq").Int32())

		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		assert.Equal(mt, "insert", insert.CommandName)
		assert.Equal(mt, []int32{5, 6}, insertedSeqs(mt.T, insert.Command))
	})

	mt.Run("starts at zero when empty", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, reviewsNS, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
		)
		repo := NewReviewRepository(mt.DB, "reviews")

		n, err := repo.Insert(context.Background(), records)
		require.NoError(mt, err)
		assert.Equal(mt, 2, n)

		mt.GetStartedEvent()
		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		assert.Equal(mt, []int32{0, 1}, insertedSeqs(mt.T, insert.Command))
	})

	mt.Run("nothing to write", func(mt *mtest.T) {
		repo := NewReviewRepository(mt.DB, "reviews")

		n, err := repo.Insert(context.Background(), nil)
		require.NoError(mt, err)
		assert.Zero(mt, n)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestFeedbackRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewFeedbackRepository(mt.DB, "feedback")

		err := repo.Create(context.Background(), &domain.Feedback{ID: "f1", Name: "Ann", Rating: 4, SubmittedAt: at})
		require.NoError(mt, err)

		insert := mt.GetStartedEvent()
		require.NotNil(mt, insert)
		values, err := insert.Command.Lookup("documents").Array().Values()
		require.NoError(mt, err)
		require.Len(mt, values, 1)
		assert.Equal(mt, "f1", values[0].Document().Lookup("_id").StringValue())
	})

	mt.Run("list newest first with limit", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.feedback", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "f2"}, {Key: "name", Value: "Bob"}, {Key: "rating", Value: 2}, {Key: "submittedAt", Value: at.Add(time.Hour)}},
			bson.D{{Key: "_id", Value: "f1"}, {Key: "name", Value: "Ann"}, {Key: "rating", Value: 4}, {Key: "submittedAt", Value: at}},
		))
		repo := NewFeedbackRepository(mt.DB, "feedback")

		got, err := repo.List(context.Background(), 10)
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "f2", got[0].ID)
		assert.Equal(mt, "Ann", got[1].Name)

		find := mt.GetStartedEvent()
		require.NotNil(mt, find)
		assert.Equal(mt, int32(-1), find.Command.Lookup("sort", "submittedAt").Int32())
		assert.Equal(mt, int64(10), find.Command.Lookup("limit").Int64())
	})
}

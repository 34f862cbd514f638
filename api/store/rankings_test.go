/* rankings_test.go
 * Contains unit tests for rankings.go and catalog.go
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"testing"

	"gamehub/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// region Ranking tests

func TestInsertRankings(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stamps snapshots", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		rows := []Ranking{{User: primitive.NewObjectID(), Points: 40, Period: shared.PeriodWeek, Position: 1}}
		require.NoError(t, s.InsertRankings(context.Background(), rows))
		assert.False(t, rows[0].ID.IsZero())
		assert.Equal(t, fixedNow, rows[0].CreatedAt)
	})

	mt.Run("empty batch", func(mt *mtest.T) {
		s := mockStore(mt)
		assert.NoError(t, s.InsertRankings(context.Background(), nil))
	})
}

func TestAggregatePeriodPoints(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes grouped rows", func(mt *mtest.T) {
		s := mockStore(mt)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(cursor("gamehub.rankings",
			bson.D{{Key: "_id", Value: a}, {Key: "points", Value: 90}},
			bson.D{{Key: "_id", Value: b}, {Key: "points", Value: 30}},
		))

		rows, err := s.AggregatePeriodPoints(context.Background(), shared.PeriodMonth, fixedNow)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, a, rows[0].User)
		assert.Equal(t, 90, rows[0].Points)
	})
}

func TestListRankings(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("filters by league", func(mt *mtest.T) {
		s := mockStore(mt)
		league := primitive.NewObjectID()
		row := Ranking{ID: primitive.NewObjectID(), User: primitive.NewObjectID(), League: &league, Period: shared.PeriodMonth, Position: 1, Points: 12}
		mt.AddMockResponses(cursor("gamehub.rankings", toDoc(t, row)))

		got, err := s.ListRankings(context.Background(), RankingFilter{Period: shared.PeriodMonth, League: &league, From: fixedNow, Limit: 3})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, league, *got[0].League)
	})
}

// endregion

// region Catalog tests

func TestCreateAchievement_DuplicateName(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("conflict", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(duplicateKey())
		err := s.CreateAchievement(context.Background(), &Achievement{Name: "First Blood"})
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestUpdateCupType(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated cup", func(mt *mtest.T) {
		s := mockStore(mt)
		cup := CupType{ID: primitive.NewObjectID(), Name: "Gold Cup", Price: 500}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, cup)}))

		got, err := s.UpdateCupType(context.Background(), &cup)
		require.NoError(t, err)
		assert.Equal(t, 500, got.Price)
	})

	mt.Run("missing cup", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		_, err := s.UpdateCupType(context.Background(), &CupType{ID: primitive.NewObjectID()})
		assert.Equal(t, mongo.ErrNoDocuments, err)
	})
}

func TestListMedals(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes medals", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(cursor("gamehub.medals", toDoc(t, Medal{ID: primitive.NewObjectID(), Name: "Champion"})))
		got, err := s.ListMedals(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Champion", got[0].Name)
	})
}

// endregion

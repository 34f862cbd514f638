/* users_test.go
 * Contains unit tests for users.go
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"errors"
	"testing"

	"gamehub/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// region CreateUser tests

func TestCreateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id and empty relation sets", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := User{Username: "alice", Email: "alice@example.com"}
		require.NoError(t, s.CreateUser(context.Background(), &user))

		assert.False(t, user.ID.IsZero())
		assert.Equal(t, fixedNow, user.CreatedAt)
		assert.NotNil(t, user.Friends)
		assert.NotNil(t, user.Blocked)
		assert.Len(t, user.LikesReceived, 0)
	})

	mt.Run("duplicate email is a conflict", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(duplicateKey())

		user := CreateSampleUser("alice")
		err := s.CreateUser(context.Background(), &user)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

// endregion

// region Lookup tests

func TestGetUserByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		s := mockStore(mt)
		user := CreateSampleUser("bob")
		mt.AddMockResponses(cursor("gamehub.users", toDoc(t, user)))

		got, err := s.GetUserByEmail(context.Background(), "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "bob", got.Username)
		assert.Equal(t, 1, got.Level.Num)
	})

	mt.Run("not found passes ErrNoDocuments", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(cursor("gamehub.users"))

		got, err := s.GetUserByEmail(context.Background(), "nobody@example.com")
		assert.Nil(t, got)
		assert.Equal(t, mongo.ErrNoDocuments, err)
	})

	mt.Run("database error is wrapped", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(commandError())

		_, err := s.GetUserByEmail(context.Background(), "bob@example.com")
		require.Error(t, err)
		assert.False(t, errors.Is(err, mongo.ErrNoDocuments))
		assert.Contains(t, err.Error(), "failed to fetch user")
	})
}

func TestGetUsersByIDs(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty input skips the query", func(mt *mtest.T) {
		s := mockStore(mt)
		users, err := s.GetUsersByIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	mt.Run("returns all matches", func(mt *mtest.T) {
		s := mockStore(mt)
		a, b := CreateSampleUser("a"), CreateSampleUser("b")
		mt.AddMockResponses(cursor("gamehub.users", toDoc(t, a), toDoc(t, b)))

		users, err := s.GetUsersByIDs(context.Background(), []primitive.ObjectID{a.ID, b.ID})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

// endregion

// region Update tests

func TestUpdateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns the updated document", func(mt *mtest.T) {
		s := mockStore(mt)
		user := CreateSampleUser("carol")
		user.Bio = "new bio"
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: toDoc(t, user)}))

		bio := "new bio"
		got, err := s.UpdateUser(context.Background(), user.ID, UserUpdate{Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, "new bio", got.Bio)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.UpdateUser(context.Background(), primitive.NewObjectID(), UserUpdate{})
		assert.Equal(t, mongo.ErrNoDocuments, err)
	})
}

func TestSetUserImage(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns the replaced image", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "image", Value: "old.png"}}}))

		previous, err := s.SetUserImage(context.Background(), primitive.NewObjectID(), "new.png")
		require.NoError(t, err)
		assert.Equal(t, "old.png", previous)
	})

	mt.Run("first image replaces nothing", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: primitive.NewObjectID()}}}))

		previous, err := s.SetUserImage(context.Background(), primitive.NewObjectID(), "new.png")
		require.NoError(t, err)
		assert.Empty(t, previous)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.SetUserImage(context.Background(), primitive.NewObjectID(), "new.png")
		assert.Equal(t, mongo.ErrNoDocuments, err)
	})
}

func TestDeleteUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(t, s.DeleteUser(context.Background(), primitive.NewObjectID()))
	})

	mt.Run("nothing deleted", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.Equal(t, mongo.ErrNoDocuments, s.DeleteUser(context.Background(), primitive.NewObjectID()))
	})
}

func TestAddToSet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matched", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(1))
		assert.NoError(t, s.AddToSet(context.Background(), primitive.NewObjectID(), shared.FieldFriends, primitive.NewObjectID()))
	})

	mt.Run("user missing", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(0))
		err := s.PullFromSet(context.Background(), primitive.NewObjectID(), shared.FieldFriends, primitive.NewObjectID())
		assert.Equal(t, mongo.ErrNoDocuments, err)
	})
}

// endregion

// region Points tests

func TestDebitDiamonds(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sufficient balance", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(1))
		assert.NoError(t, s.DebitDiamonds(context.Background(), primitive.NewObjectID(), 10))
	})

	mt.Run("insufficient balance is a conflict", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(0))
		assert.ErrorIs(t, s.DebitDiamonds(context.Background(), primitive.NewObjectID(), 10), ErrConflict)
	})
}

func TestAwardPoints(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("updates game and league points", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(2), updated(1))
		assert.NoError(t, s.AwardPoints(context.Background(), []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}, 10))
	})

	mt.Run("zero points is a no-op", func(mt *mtest.T) {
		s := mockStore(mt)
		assert.NoError(t, s.AwardPoints(context.Background(), []primitive.ObjectID{primitive.NewObjectID()}, 0))
	})

	mt.Run("first update fails", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(commandError())
		err := s.AwardPoints(context.Background(), []primitive.ObjectID{primitive.NewObjectID()}, 5)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "game points")
	})
}

func TestSaveRanks(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("bulk writes every update", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(2))
		err := s.SaveRanks(context.Background(), []RankUpdate{
			{User: primitive.NewObjectID(), WeekRank: 1, MonthRank: 1, TotalRank: 2},
			{User: primitive.NewObjectID(), WeekRank: 2, MonthRank: 2, TotalRank: 1, HasLeagueRanking: true, LeagueMonthRank: 1},
		})
		assert.NoError(t, err)
	})

	mt.Run("nothing to save", func(mt *mtest.T) {
		s := mockStore(mt)
		assert.NoError(t, s.SaveRanks(context.Background(), nil))
	})
}

func TestResetPoints(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("weekly", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(3))
		assert.NoError(t, s.ResetWeeklyPoints(context.Background()))
	})

	mt.Run("monthly runs both pipelines", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(3), updated(2))
		assert.NoError(t, s.ResetMonthlyPoints(context.Background()))
	})

	mt.Run("monthly league reset failure", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(3), commandError())
		err := s.ResetMonthlyPoints(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "league point reset")
	})
}

// endregion

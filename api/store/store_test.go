/* store_test.go
 * Contains unit tests for store.go and the shared mtest helpers used by the other store tests
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func mockStore(mt *mtest.T) *Store {
	return NewStoreFromDatabase(mt.Client, mt.DB, func() time.Time { return fixedNow })
}

// toDoc converts a model into the bson.D a mock cursor returns
func toDoc(t *testing.T, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func cursor(ns string, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docs...)
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"})
}

func commandError() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "boom", Name: "BadValue"})
}

// region NewStore tests

func TestNewStore_RequiresArguments(t *testing.T) {
	_, err := NewStore(context.Background(), "", "mongodb://localhost:27017")
	assert.Error(t, err)

	_, err = NewStore(context.Background(), "gamehub", "")
	assert.Error(t, err)
}

// Integration test for NewStore
func TestNewStore_Integration(t *testing.T) {
	mongoURI := os.Getenv("MONGO_TEST_URI")
	if mongoURI == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := NewStore(ctx, "gamehub_test", mongoURI)
	require.NoError(t, err)
	defer s.Close(context.Background())

	assert.Equal(t, "gamehub_test", s.Database.Name())
	assert.Equal(t, "users", s.Collections.Users.Name())
	assert.Equal(t, "rankings", s.Collections.Rankings.Name())
	require.NoError(t, s.EnsureIndexes(ctx))
}

// endregion

// region Error helpers

func TestWrapFind_PassesNoDocuments(t *testing.T) {
	assert.Equal(t, mongo.ErrNoDocuments, wrapFind(mongo.ErrNoDocuments, "user"))
	assert.Nil(t, wrapFind(nil, "user"))

	err := wrapFind(errors.New("timeout"), "user")
	assert.Contains(t, err.Error(), "failed to fetch user")
}

func TestClose_NilClient(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close(context.Background()))
}

// endregion

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates every index", func(mt *mtest.T) {
		s := mockStore(mt)
		for i := 0; i < 8; i++ {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
		}
		require.NoError(t, s.EnsureIndexes(context.Background()))
	})

	mt.Run("reports failure", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(commandError())
		err := s.EnsureIndexes(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create indexes")
	})
}

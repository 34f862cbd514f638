/* chats_test.go
 * Contains unit tests for chats.go, social.go and gifts.go
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// region Chat tests

func TestFindDirectChat(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("existing chat", func(mt *mtest.T) {
		s := mockStore(mt)
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		chat := Chat{ID: primitive.NewObjectID(), Users: []primitive.ObjectID{a, b}}
		mt.AddMockResponses(cursor("gamehub.chats", toDoc(t, chat)))

		got, err := s.FindDirectChat(context.Background(), a, b)
		require.NoError(t, err)
		assert.Equal(t, chat.ID, got.ID)
		assert.True(t, got.HasMember(b))
	})

	mt.Run("no chat yet", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(cursor("gamehub.chats"))
		_, err := s.FindDirectChat(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
		assert.Equal(t, mongo.ErrNoDocuments, err)
	})
}

func TestCreateMessage_SenderHasRead(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("read_by seeded with sender", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		msg := Message{Sender: primitive.NewObjectID(), Chat: primitive.NewObjectID(), Content: "hi"}
		require.NoError(t, s.CreateMessage(context.Background(), &msg))
		assert.Equal(t, []primitive.ObjectID{msg.Sender}, msg.ReadBy)
		assert.Equal(t, fixedNow, msg.CreatedAt)
	})
}

func TestListMessages(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes in cursor order", func(mt *mtest.T) {
		s := mockStore(mt)
		chat := primitive.NewObjectID()
		first := Message{ID: primitive.NewObjectID(), Chat: chat, Content: "one", CreatedAt: fixedNow}
		second := Message{ID: primitive.NewObjectID(), Chat: chat, Content: "two", CreatedAt: fixedNow}
		mt.AddMockResponses(cursor("gamehub.messages", toDoc(t, first), toDoc(t, second)))

		got, err := s.ListMessages(context.Background(), chat)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "one", got[0].Content)
	})
}

func TestMarkMessageRead_Missing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing message", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updated(0))
		assert.Equal(t, mongo.ErrNoDocuments, s.MarkMessageRead(context.Background(), primitive.NewObjectID(), primitive.NewObjectID()))
	})
}

// endregion

// region Friend request tests

func TestFriendRequests(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate request is a conflict", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(duplicateKey())
		err := s.CreateFriendRequest(context.Background(), &FriendRequest{From: primitive.NewObjectID(), To: primitive.NewObjectID()})
		assert.ErrorIs(t, err, ErrConflict)
	})

	mt.Run("delete between users", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		assert.NoError(t, s.DeleteRequestsBetween(context.Background(), primitive.NewObjectID(), primitive.NewObjectID()))
	})

	mt.Run("delete missing request", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		assert.Equal(t, mongo.ErrNoDocuments, s.DeleteFriendRequest(context.Background(), primitive.NewObjectID()))
	})
}

// endregion

func TestListGiftsByReceiver(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes gifts", func(mt *mtest.T) {
		s := mockStore(mt)
		receiver := primitive.NewObjectID()
		gift := Gift{ID: primitive.NewObjectID(), Sender: primitive.NewObjectID(), Receivers: []primitive.ObjectID{receiver}, Type: "diamond", Count: 5, IsAnonymous: true}
		mt.AddMockResponses(cursor("gamehub.gifts", toDoc(t, gift)))

		got, err := s.ListGiftsByReceiver(context.Background(), receiver)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].IsAnonymous)
		assert.Equal(t, 5, got[0].Count)
	})
}

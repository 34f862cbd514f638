/* gifts_test.go
 * Contains unit tests for gifts.go
 * Authors: Zachary Bower
 */

package api

import (
	"errors"
	"net/http"
	"testing"

	"gamehub/api/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func diamondGift(receivers ...primitive.ObjectID) GiftInput {
	return GiftInput{
		Receivers: hexIDs(receivers),
		Type:      shared.GiftDiamond,
		Category:  shared.CategoryVirtual,
		Count:     10,
	}
}

// region CreateGift tests

func TestCreateGift_DiamondTransfer(t *testing.T) {
	a, ms := newTestAPI(t)
	events := &recordingEvents{}
	a.Events = events
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	cat := seedUser(ms, "cat")
	ms.Users[ada.ID].Diamond = 25

	gift, err := a.CreateGift(as(ada), diamondGift(bob.ID, cat.ID))
	require.NoError(t, err)
	assert.Equal(t, shared.GiftPending, gift.Status)
	assert.Equal(t, 5, ms.Users[ada.ID].Diamond)
	assert.Equal(t, 10, ms.Users[bob.ID].Diamond)
	assert.Equal(t, 10, ms.Users[cat.ID].Diamond)
	assert.True(t, ms.Users[ada.ID].HasRelation(shared.FieldGiftsGiven, gift.ID))
	assert.True(t, ms.Users[bob.ID].HasRelation(shared.FieldGiftsReceived, gift.ID))
	assert.True(t, ms.Users[cat.ID].HasRelation(shared.FieldGiftsReceived, gift.ID))
	assert.Equal(t, []string{shared.EventGiftCreated}, events.types)
}

func TestCreateGift_InsufficientDiamonds(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	cat := seedUser(ms, "cat")
	ms.Users[ada.ID].Diamond = 15

	_, err := a.CreateGift(as(ada), diamondGift(bob.ID, cat.ID))
	requireCode(t, err, http.StatusBadRequest)
	assert.Equal(t, "Insufficient diamonds", err.Error())
	assert.Equal(t, 15, ms.Users[ada.ID].Diamond)
	assert.Zero(t, ms.Users[bob.ID].Diamond)
	assert.Empty(t, ms.Gifts)
}

func TestCreateGift_CreditFailureRollsBack(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	ms.Users[ada.ID].Diamond = 10

	ms.FailOn("CreditDiamonds", errors.New("db down"))
	_, err := a.CreateGift(as(ada), diamondGift(bob.ID))
	requireCode(t, err, http.StatusInternalServerError)
	assert.Equal(t, 1, ms.CallCount("CreditDiamonds"))
	assert.Equal(t, 10, ms.Users[ada.ID].Diamond)
	assert.Empty(t, ms.Gifts)
}

func TestCreateGift_LaterWriteFailureRestoresBalances(t *testing.T) {
	for _, method := range []string{"CreateGift", "AddToSet"} {
		t.Run(method, func(t *testing.T) {
			a, ms := newTestAPI(t)
			events := &recordingEvents{}
			a.Events = events
			ada := seedUser(ms, "ada")
			bob := seedUser(ms, "bob")
			ms.Users[ada.ID].Diamond = 100

			ms.FailOn(method, errors.New("db down"))
			_, err := a.CreateGift(as(ada), diamondGift(bob.ID))
			requireCode(t, err, http.StatusInternalServerError)
			assert.Equal(t, 100, ms.Users[ada.ID].Diamond)
			assert.Zero(t, ms.Users[bob.ID].Diamond)
			assert.Empty(t, ms.Gifts)
			assert.Empty(t, ms.Users[ada.ID].GiftsGiven)
			assert.Empty(t, events.types)

			ms.FailOn(method, nil)
			gift, err := a.CreateGift(as(ada), diamondGift(bob.ID))
			require.NoError(t, err)
			assert.Equal(t, 90, ms.Users[ada.ID].Diamond)
			assert.Equal(t, 10, ms.Users[bob.ID].Diamond)
			assert.Len(t, ms.Gifts, 1)
			assert.True(t, ms.Users[bob.ID].HasRelation(shared.FieldGiftsReceived, gift.ID))
		})
	}
}

func TestCreateGift_Validation(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")

	_, err := a.CreateGift(as(ada), diamondGift(ada.ID))
	requireCode(t, err, http.StatusBadRequest)

	_, err = a.CreateGift(as(ada), diamondGift(primitive.NewObjectID()))
	requireCode(t, err, http.StatusNotFound)

	input := diamondGift(bob.ID)
	input.Count = 0
	_, err = a.CreateGift(as(ada), input)
	requireCode(t, err, http.StatusBadRequest)

	input = diamondGift(bob.ID)
	input.Category = "digital"
	_, err = a.CreateGift(as(ada), input)
	requireCode(t, err, http.StatusBadRequest)

	input = diamondGift(bob.ID)
	input.Type = shared.GiftItem
	input.Status = shared.GiftCompleted
	gift, err := a.CreateGift(as(ada), input)
	require.NoError(t, err)
	assert.Equal(t, shared.GiftCompleted, gift.Status)
	assert.Zero(t, ms.Users[bob.ID].Diamond)
}

// endregion

// region Gift query tests

func TestGiftQueries_AnonymousSender(t *testing.T) {
	a, ms := newTestAPI(t)
	ada := seedUser(ms, "ada")
	bob := seedUser(ms, "bob")
	eve := seedUser(ms, "eve")

	input := diamondGift(bob.ID)
	input.Type = shared.GiftItem
	input.IsAnonymous = true
	gift, err := a.CreateGift(as(ada), input)
	require.NoError(t, err)

	received, err := a.GetGiftsReceived(as(bob))
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.True(t, received[0].Sender.IsZero())

	got, err := a.GetGift(as(bob), gift.ID.Hex())
	require.NoError(t, err)
	assert.True(t, got.Sender.IsZero())

	got, err = a.GetGift(as(ada), gift.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.Sender)

	given, err := a.GetGiftsGiven(as(ada))
	require.NoError(t, err)
	assert.Len(t, given, 1)

	_, err = a.GetGift(as(eve), gift.ID.Hex())
	requireCode(t, err, http.StatusForbidden)
	assert.Equal(t, ada.ID, ms.Gifts[gift.ID].Sender)
}

// endregion

/* models_test.go
 * Contains unit tests for models.go helper methods
 * Authors: Zachary Bower
 */

package store

import (
	"testing"

	"gamehub/api/shared"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUser_HasRelation(t *testing.T) {
	friend := primitive.NewObjectID()
	blocked := primitive.NewObjectID()
	u := User{Friends: []primitive.ObjectID{friend}, Blocked: []primitive.ObjectID{blocked}}

	assert.True(t, u.HasRelation(shared.FieldFriends, friend))
	assert.False(t, u.HasRelation(shared.FieldFriends, blocked))
	assert.True(t, u.HasRelation(shared.FieldBlocked, blocked))
	assert.False(t, u.HasRelation("unknown", friend))
}

func TestMatch_Helpers(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	m := Match{Participants: []primitive.ObjectID{a, b}}

	assert.False(t, m.Decided())
	assert.True(t, m.HasParticipant(a))
	assert.False(t, m.HasParticipant(primitive.NewObjectID()))

	m.WinnerTeam = &a
	assert.True(t, m.Decided())
}

func TestCustomLeague_Membership(t *testing.T) {
	player, spectator := primitive.NewObjectID(), primitive.NewObjectID()
	l := CustomLeague{RegisteredPlayers: []primitive.ObjectID{player}, Spectators: []primitive.ObjectID{spectator}}

	assert.True(t, l.IsPlayer(player))
	assert.False(t, l.IsPlayer(spectator))
	assert.True(t, l.IsSpectator(spectator))
}

// An undecided match must store winner_team as null so the conditional update filter matches it
func TestMatch_UndecidedEncodesNullWinner(t *testing.T) {
	raw, err := bson.Marshal(Match{ID: primitive.NewObjectID()})
	assert.NoError(t, err)

	val := bson.Raw(raw).Lookup("winner_team")
	assert.Equal(t, bson.TypeNull, val.Type)
}

func TestUser_LeagueStandingKey(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(User{League: &LeagueStanding{ID: id}})
	assert.NoError(t, err)

	val := bson.Raw(raw).Lookup("league", "id")
	assert.Equal(t, id, val.ObjectID())
}

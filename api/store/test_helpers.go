/* test_helpers.go
 * Contains helper functions for building stores and sample documents in tests
 * Authors: Zachary Bower
 */

package store

import (
	"time"

	"gamehub/api/shared"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NewStoreFromDatabase wraps an existing client and database, such as an mtest mock deployment
func NewStoreFromDatabase(client *mongo.Client, db *mongo.Database, now func() time.Time) *Store {
	s := newStoreFromDB(client, db)
	if now != nil {
		s.now = now
	}
	return s
}

// CreateSampleUser creates a user with the defaults sign up would assign
func CreateSampleUser(username string) User {
	return User{
		ID:       primitive.NewObjectID(),
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "$2a$10$abcdefghijklmnopqrstuv",
		Level:    Level{Name: "beginner", Num: 1},
	}
}

// CreateSampleCustomLeague creates a public league waiting for players
func CreateSampleCustomLeague(creator primitive.ObjectID, maxSeats int) CustomLeague {
	return CustomLeague{
		ID:                primitive.NewObjectID(),
		Name:              "Friday Cup",
		CreatedBy:         creator,
		MaxSeats:          maxSeats,
		PointsForWin:      10,
		PointsForTopThree: [3]int{100, 50, 25},
		Status:            shared.LeagueComing,
		RegisteredPlayers: []primitive.ObjectID{},
		Spectators:        []primitive.ObjectID{},
	}
}

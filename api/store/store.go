/* store.go
 * Contains the store struct and NewStore function. The methods for this package are split into one file per
 * area of the database: users, social, chats, gifts, catalog, leagues and rankings
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrConflict is returned when a conditional update matched no document, or a unique index rejected a write
var ErrConflict = errors.New("conflicting write")

// Collections holds a handle for every collection the service uses
type Collections struct {
	Users          *mongo.Collection
	FriendRequests *mongo.Collection
	Chats          *mongo.Collection
	Messages       *mongo.Collection
	Gifts          *mongo.Collection
	Achievements   *mongo.Collection
	Medals         *mongo.Collection
	CupTypes       *mongo.Collection
	Leagues        *mongo.Collection
	CustomLeagues  *mongo.Collection
	Teams          *mongo.Collection
	Matches        *mongo.Collection
	Rankings       *mongo.Collection
}

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections Collections
	now         func() time.Time
}

// Function for initialising Store. Opens the db connection and sets the collection handles
// Preconditions: Receives a context bounding the connection attempt, the database name and the mongo URI
// Postconditions: Returns pointer to the Store object, or error if the connection or ping fails
func NewStore(ctx context.Context, dbName string, mongoURI string) (*Store, error) {
	if dbName == "" || mongoURI == "" {
		return nil, fmt.Errorf("dbName and mongoURI cannot be empty")
	}

	opts := options.Client().
		ApplyURI(mongoURI).
		SetBSONOptions(&options.BSONOptions{NilSliceAsEmpty: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return newStoreFromDB(client, client.Database(dbName)), nil
}

func newStoreFromDB(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Client:   client,
		Database: db,
		Collections: Collections{
			Users:          db.Collection("users"),
			FriendRequests: db.Collection("friend_requests"),
			Chats:          db.Collection("chats"),
			Messages:       db.Collection("messages"),
			Gifts:          db.Collection("gifts"),
			Achievements:   db.Collection("achievements"),
			Medals:         db.Collection("medals"),
			CupTypes:       db.Collection("cup_types"),
			Leagues:        db.Collection("leagues"),
			CustomLeagues:  db.Collection("custom_leagues"),
			Teams:          db.Collection("teams"),
			Matches:        db.Collection("matches"),
			Rankings:       db.Collection("rankings"),
		},
		now: time.Now,
	}
}

// Close disconnects the mongo client
func (s *Store) Close(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}

// Ping checks the primary is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

// WithTransaction runs fn in a multi-document transaction. Every store call inside fn must use the context fn
// receives. The transaction commits when fn returns nil and aborts otherwise, returning fn's error unchanged.
// Transient errors retry fn, so fn must not have side effects outside the store
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.Client.UseSession(ctx, func(sc mongo.SessionContext) error {
		_, err := sc.WithTransaction(sc, func(tc mongo.SessionContext) (interface{}, error) {
			return nil, fn(tc)
		})
		return err
	})
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// wrapWrite converts duplicate key errors into ErrConflict and annotates everything else
func wrapWrite(err error, what string) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return fmt.Errorf("%s failed: %w", what, err)
}

// wrapFind passes mongo.ErrNoDocuments through unchanged so callers can test for it
func wrapFind(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	return fmt.Errorf("failed to fetch %s from database: %w", what, err)
}

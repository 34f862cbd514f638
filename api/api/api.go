/* api.go
 * This file contains the API struct which every transport (GraphQL, REST, Discord, cron) calls into. The methods are
 * split into one file per area: users, social, chat, gifts, catalog, leagues and rankings
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"gamehub/api/apperr"
	"gamehub/api/auth"
	"gamehub/api/events"
	"gamehub/api/presence"
	"gamehub/api/pubsub"
	"gamehub/api/store"
	"gamehub/obslog"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Announcer posts league announcements to an external chat, such as a Discord channel
type Announcer interface {
	Announce(message string) error
}

type noopAnnouncer struct{}

func (noopAnnouncer) Announce(string) error { return nil }

// API provides methods for interacting with the gaming hub data layer
type API struct {
	Store     store.Interface
	Tokens    *auth.Tokens
	Broker    pubsub.Broker
	Presence  presence.Tracker
	Events    events.Publisher
	Announcer Announcer

	validate *validator.Validate
	rngMu    sync.Mutex
	rng      *rand.Rand
	now      func() time.Time
}

// Option customises an API built by NewAPI
type Option func(*API)

func WithBroker(b pubsub.Broker) Option { return func(a *API) { a.Broker = b } }
func WithPresence(p presence.Tracker) Option { return func(a *API) { a.Presence = p } }
func WithEvents(p events.Publisher) Option { return func(a *API) { a.Events = p } }
func WithAnnouncer(ann Announcer) Option { return func(a *API) { a.Announcer = ann } }
func WithRand(rng *rand.Rand) Option { return func(a *API) { a.rng = rng } }
func WithClock(now func() time.Time) Option { return func(a *API) { a.now = now } }

// NewAPI creates a new API instance over the given store
// Preconditions: Receives a store implementation and the token issuer
// Postconditions: Returns the API. Collaborators not supplied through options default to in process or no-op versions
func NewAPI(s store.Interface, tokens *auth.Tokens, opts ...Option) (*API, error) {
	if s == nil || tokens == nil {
		return nil, fmt.Errorf("store and tokens are required")
	}
	a := &API{
		Store:     s,
		Tokens:    tokens,
		Broker:    pubsub.NewMemory(),
		Presence:  presence.NewMemory(),
		Events:    events.Noop{},
		Announcer: noopAnnouncer{},
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *API) clock() time.Time {
	return a.now().UTC()
}

// requireUser returns the caller's identity and object id, or 401
func requireUser(ctx context.Context) (auth.Identity, primitive.ObjectID, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Identity{}, primitive.NilObjectID, apperr.ErrNotAuthenticated
	}
	oid, err := primitive.ObjectIDFromHex(id.UserID)
	if err != nil {
		return auth.Identity{}, primitive.NilObjectID, apperr.ErrNotAuthenticated
	}
	return id, oid, nil
}

// parseID converts a client supplied hex id, naming the argument in the 400 error
func parseID(raw string, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest(fmt.Sprintf("Invalid %s", what))
	}
	return oid, nil
}

func parseIDs(raw []string, what string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, r := range raw {
		oid, err := parseID(r, what)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// storeErr maps store errors onto client facing errors
func storeErr(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.NotFound(notFound)
	default:
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperr.Internal(err)
	}
}

// validateInput runs the struct tag validation and reports the first failing field
func (a *API) validateInput(input interface{}) error {
	err := a.validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return apperr.BadRequest(fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			return apperr.BadRequest(fmt.Sprintf("Invalid %s: must be one of %s", fe.Field(), fe.Param()))
		default:
			return apperr.BadRequest(fmt.Sprintf("Invalid %s", fe.Field()))
		}
	}
	return apperr.BadRequest("Invalid input")
}

// emit publishes a domain event. Failures are logged and never fail the caller
func (a *API) emit(ctx context.Context, eventType string, data interface{}) {
	if err := a.Events.Publish(ctx, eventType, data); err != nil {
		obslog.L().Warn("event publish failed", zap.String("event", eventType), zap.Error(err))
	}
}

// broadcast publishes to a subscription topic. Failures are logged and never fail the caller
func (a *API) broadcast(ctx context.Context, topic string, payload interface{}) {
	if err := a.Broker.Publish(ctx, topic, payload); err != nil {
		obslog.L().Warn("subscription publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

func (a *API) announce(message string) {
	if err := a.Announcer.Announce(message); err != nil {
		obslog.L().Warn("announcement failed", zap.Error(err))
	}
}

func (a *API) shuffleRand() (*rand.Rand, func()) {
	a.rngMu.Lock()
	return a.rng, a.rngMu.Unlock
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

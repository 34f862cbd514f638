/* graph.go
 * Builds the GraphQL schema over the api package. Resolver failures are counted per status code and server side
 * failures are logged with their stack
 * Authors: Zachary Bower
 */

package graph

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gamehub/api/api"
	"gamehub/api/apperr"
	"gamehub/api/auth"
	"gamehub/metrics"
	"gamehub/obslog"

	graphql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/graph-gophers/graphql-go/introspection"
	"github.com/graph-gophers/graphql-go/trace/noop"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

//go:embed schema.graphql
var Schema string

const maxDepth = 12

// Resolver is the root resolver for queries, mutations and subscriptions
type Resolver struct {
	api *api.API
}

// NewSchema parses the schema against a root resolver backed by a
// Preconditions: Receives a constructed API
// Postconditions: Returns the executable schema, or the error describing the first resolver mismatch
func NewSchema(a *api.API) (*graphql.Schema, error) {
	if a == nil {
		return nil, fmt.Errorf("api is required")
	}
	return graphql.ParseSchema(Schema, &Resolver{api: a},
		graphql.UseFieldResolvers(),
		graphql.MaxDepth(maxDepth),
		graphql.Tracer(errorTracer{}),
		graphql.Logger(panicLogger{}),
	)
}

// errorTracer records the outcome of every operation
type errorTracer struct {
	noop.Tracer
}

func (errorTracer) TraceQuery(ctx context.Context, _ string, operationName string, _ map[string]interface{}, _ map[string]*introspection.Type) (context.Context, func([]*gqlerrors.QueryError)) {
	start := time.Now()
	return ctx, func(errs []*gqlerrors.QueryError) {
		for _, e := range errs {
			recordError(operationName, e)
		}
		if len(errs) == 0 {
			obslog.L().Debug("graphql operation", zap.String("operation", operationName), zap.Duration("took", time.Since(start)))
		}
	}
}

func recordError(operation string, e *gqlerrors.QueryError) {
	code := http.StatusBadRequest
	if e.ResolverError != nil {
		code = apperr.CodeOf(e.ResolverError)
	}
	metrics.GraphQLErrors.WithLabelValues(strconv.Itoa(code)).Inc()
	if code < http.StatusInternalServerError {
		return
	}
	obslog.L().Error("resolver failed",
		zap.String("operation", operation),
		zap.Any("path", e.Path),
		zap.String("stack", apperr.Stack(e.ResolverError)),
	)
}

type panicLogger struct{}

func (panicLogger) LogPanic(_ context.Context, value interface{}) {
	metrics.GraphQLErrors.WithLabelValues(strconv.Itoa(http.StatusInternalServerError)).Inc()
	obslog.L().Error("resolver panicked", zap.Any("panic", value), zap.Stack("stack"))
}

// subscriber returns the identity of a subscription client, or 401
func subscriber(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Identity{}, apperr.ErrNotAuthenticated
	}
	return id, nil
}

// region Conversions

func gqlID(id primitive.ObjectID) graphql.ID {
	return graphql.ID(id.Hex())
}

func gqlIDs(ids []primitive.ObjectID) []graphql.ID {
	out := make([]graphql.ID, len(ids))
	for i, id := range ids {
		out[i] = gqlID(id)
	}
	return out
}

func optID(id primitive.ObjectID) *graphql.ID {
	if id.IsZero() {
		return nil
	}
	v := gqlID(id)
	return &v
}

func gqlTime(t time.Time) graphql.Time {
	return graphql.Time{Time: t}
}

func optTime(t time.Time) *graphql.Time {
	if t.IsZero() {
		return nil
	}
	v := gqlTime(t)
	return &v
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ids(raw []graphql.ID) []string {
	out := make([]string, len(raw))
	for i, id := range raw {
		out[i] = string(id)
	}
	return out
}

// endregion

// notFound reports whether err means a referenced document is gone, which a nullable field renders as null
func notFound(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Code == http.StatusNotFound
}

/* models.go
 * Contains the web server configuration and the Server type shared by the route handlers
 * Authors: Zachary Bower
 */

package web

import (
	"context"
	"sync"
	"time"

	"gamehub/api/api"

	graphql "github.com/graph-gophers/graphql-go"
	"golang.org/x/time/rate"
)

// Config holds the configuration for the web server
type Config struct {
	API         *api.API
	Schema      *graphql.Schema
	UploadDir   string
	CORSOrigins []string

	// AuthRateLimit is the number of login and signUp requests a client IP may make per second, with AuthRateBurst
	// requests allowed at once
	AuthRateLimit float64
	AuthRateBurst int
}

// Server is the HTTP server that serves the GraphQL endpoint, subscriptions and image uploads
type Server struct {
	api       *api.API
	schema    *graphql.Schema
	uploadDir string
	origins   []string
	limiter   *ipLimiter

	// sockets is cancelled when the server shuts down, closing every subscription connection
	sockets      context.Context
	closeSockets context.CancelFunc
}

// ipLimiter hands out one token bucket per client IP
type ipLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*limitedClient
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

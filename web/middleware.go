/* middleware.go
 * Contains the chi middleware for request logging, authentication and rate limiting of the auth mutations
 * Authors: Zachary Bower
 */

package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gamehub/api/auth"
	"gamehub/metrics"
	"gamehub/obslog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxGraphQLBody = 1 << 20
	limiterIdle    = 10 * time.Minute
)

// commas are insignificant in GraphQL, like whitespace
var authMutation = regexp.MustCompile(`\b(login|signUp)[\s,]*\(`)

// requestLogger logs every request through zap and records the request metrics by route pattern
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		took := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(took.Seconds())

		obslog.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", took),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// authenticate puts the identity of a valid bearer token into the request context. Requests without a valid token
// carry on anonymously and resolvers that need a user answer 401
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := s.api.Tokens.Parse(header)
		if err != nil {
			obslog.L().Debug("ignoring invalid bearer token", zap.String("request_id", middleware.GetReqID(r.Context())))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// limitAuthMutations applies the per IP limiter to GraphQL requests that call login or signUp
func (s *Server) limitAuthMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGraphQLBody))
		if err != nil {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var params struct {
			Query string `json:"query"`
		}
		if json.Unmarshal(body, &params) == nil && callsAuthMutation(params.Query) {
			if !s.limiter.allow(clientIP(r), time.Now()) {
				writeGraphQLError(w, "Too many requests, try again later", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// callsAuthMutation reports whether query selects login or signUp once its comments are removed
func callsAuthMutation(query string) bool {
	return authMutation.MatchString(stripComments(query))
}

// stripComments replaces every # comment of a GraphQL document with a space. String and block string literals are
// copied through so a # inside one is kept
func stripComments(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		switch c := query[i]; {
		case strings.HasPrefix(query[i:], `"""`):
			end := strings.Index(query[i+3:], `"""`)
			if end < 0 {
				b.WriteString(query[i:])
				return b.String()
			}
			b.WriteString(query[i : i+end+6])
			i += end + 5
		case c == '"':
			j := i + 1
			for j < len(query) && query[j] != '"' && query[j] != '\n' {
				if query[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(query) {
				b.WriteString(query[i:])
				return b.String()
			}
			b.WriteString(query[i : j+1])
			i = j
		case c == '#':
			for i < len(query) && query[i] != '\n' && query[i] != '\r' {
				i++
			}
			b.WriteByte(' ')
			if i < len(query) {
				b.WriteByte(query[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	return &ipLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*limitedClient),
	}
}

// allow takes a token from the bucket of ip, dropping buckets that have been idle for a while
func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdle {
			delete(l.clients, key)
		}
	}
	c, ok := l.clients[ip]
	if !ok {
		c = &limitedClient{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// clientIP returns the host part of the remote address, which middleware.RealIP has already resolved
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeGraphQLError answers with a GraphQL shaped error body so clients can treat it like a resolver error
func writeGraphQLError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]interface{}{{
			"message":    message,
			"extensions": map[string]interface{}{"code": code},
		}},
	})
}

/* server.go
 * Contains the chi router and the Start function that serves it until the context is cancelled
 * Authors: Zachary Bower
 */

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"gamehub/obslog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// NewServer validates the configuration and prepares the upload directory
// Preconditions: Receives a Config with an API and a parsed schema
// Postconditions: Returns the Server, or an error if a dependency is missing or the upload directory cannot be created
func NewServer(cfg Config) (*Server, error) {
	if cfg.API == nil || cfg.Schema == nil {
		return nil, errors.New("api and schema are required")
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 1
	}
	if cfg.AuthRateBurst <= 0 {
		cfg.AuthRateBurst = 5
	}

	sockets, closeSockets := context.WithCancel(context.Background())
	return &Server{
		api:          cfg.API,
		schema:       cfg.Schema,
		uploadDir:    cfg.UploadDir,
		origins:      cfg.CORSOrigins,
		limiter:      newIPLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		sockets:      sockets,
		closeSockets: closeSockets,
	}, nil
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	r.Get("/photo", s.photoHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.With(s.limitAuthMutations).Post("/graphql", (&relay.Handler{Schema: s.schema}).ServeHTTP)
		r.Get("/graphql", s.subscriptionHandler)
		r.Post("/upload-photo", s.uploadPhotoHandler)
	})
	return r
}

// Start serves the router on addr until ctx is cancelled, then drains open requests
// Preconditions: Receives a context that is cancelled on shutdown, usually from signal.NotifyContext
// Postconditions: Returns nil after a clean shutdown, or the error that stopped the listener
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// hijacked websocket connections are not tracked by Shutdown
	srv.RegisterOnShutdown(s.closeSockets)

	errCh := make(chan error, 1)
	go func() {
		obslog.L().Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	obslog.L().Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

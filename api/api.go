// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const (
	AccountHeader   = "X-Account"
	RequestIDHeader = "X-Request-Id"
)

// ServerConfig holds API server settings
type ServerConfig struct {
	ListenAddress  string
	AllowedOrigins []string
}

// Server is the JSON HTTP API of the governance engine
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	engine     GovernanceEngine
	identities IdentityCreator
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance. identities may be nil, in which
// case the identity route is not registered
func New(
	cfg ServerConfig,
	engine GovernanceEngine,
	identities IdentityCreator,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	return &Server{
		config:     cfg,
		logger:     logger,
		engine:     engine,
		identities: identities,
	}
}

// Handler returns the routed HTTP handler with CORS and request id
// middleware applied
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/voters", s.handleRegisterVoter).
		Methods(http.MethodPost)
	v1.HandleFunc("/voters/{account}", s.handleVoter).
		Methods(http.MethodGet)
	if s.identities != nil {
		v1.HandleFunc("/identities", s.handleCreateIdentity).
			Methods(http.MethodPost)
	}
	v1.HandleFunc("/proposals", s.handleSubmitProposal).
		Methods(http.MethodPost)
	v1.HandleFunc("/proposals/queue", s.handleQueue).
		Methods(http.MethodGet)
	v1.HandleFunc("/votes", s.handleSubmitVotes).
		Methods(http.MethodPost)
	v1.HandleFunc("/votes/{slot:[0-9]+}", s.handleSubmitVote).
		Methods(http.MethodPost)
	v1.HandleFunc("/referenda/current", s.handleCurrentReferendum).
		Methods(http.MethodGet)
	v1.HandleFunc("/referenda/{index:[0-9]+}", s.handleReferendum).
		Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, http.StatusNotFound, "Not Found", "no such route")
		},
	)
	router.MethodNotAllowedHandler = http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			writeError(
				w,
				r,
				http.StatusMethodNotAllowed,
				"Method Not Allowed",
				"method not allowed for route",
			)
		},
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", AccountHeader, RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(router)
	return normalizePreflightHeaders(corsHandler)
}

// normalizePreflightHeaders rewrites Access-Control-Request-Headers into the
// sorted lowercase list browsers send, so that preflights from other clients
// are matched against the allowed headers the same way
func normalizePreflightHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := r.Header.Values("Access-Control-Request-Headers")
		if r.Method == http.MethodOptions && len(values) > 0 {
			var names []string
			for _, value := range values {
				for name := range strings.SplitSeq(value, ",") {
					name = strings.ToLower(strings.TrimSpace(name))
					if name != "" {
						names = append(names, name)
					}
				}
			}
			slices.Sort(names)
			names = slices.Compact(names)
			r.Header.Set("Access-Control-Request-Headers", strings.Join(names, ","))
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server in a background goroutine
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	s.httpServer = server
	s.mu.Unlock()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		s.mu.Lock()
		s.httpServer = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to listen for API server: %w", err)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	s.logger.Info(
		"API listener started",
		"address", ln.Addr().String(),
	)

	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error(
				"failed to shutdown API server on context cancellation",
				"error", err,
			)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.logger.Debug("shutting down API server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown API server: %w", err)
	}
	return nil
}

type requestIDKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		s.logger.Debug(
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", reqID,
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

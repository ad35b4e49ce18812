// Package httpapi exposes the account facade as a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/facade"
	"github.com/julienschmidt/httprouter"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address   string
	accounts  facade.API
	logger    logging.Logger
	jwtSecret []byte
}

func NewHTTPServer(address string, l logging.Logger, accounts facade.API, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   address,
		accounts:  accounts,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
	}
}

// Handler returns the routed handler with logging and panic recovery.
func (s *HTTPServer) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/health", s.health)
	router.GET("/Users", s.listUsers)
	router.POST("/Users", s.createUser)
	router.GET("/Users/:id", s.getUser)
	router.POST("/Users/:id", s.updateUser)
	router.DELETE("/Users/:id", s.requireToken(s.deleteUser))
	router.POST("/Users/:id/Authenticate", s.authenticate)
	router.POST("/Users/:id/Password", s.updatePassword)
	router.POST("/Sessions/Refresh", s.refreshToken)

	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.logger.Error(r.Context(), "panic while serving request", "path", r.URL.Path, "panic", v)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}

	return s.logRequests(router)
}

// Run listens on the configured address and serves until ctx is done.
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is done, then shuts down.
func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

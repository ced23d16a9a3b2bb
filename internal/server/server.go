// Package server is a development HTTP server: it exposes assets in the model
// API layout under /api/ and pushes id-map texture updates over a websocket.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/supermesh/internal/transport"
)

// Options configures a Server.
type Options struct {
	Addr string

	// APIKey, when set, must be passed as ?key= on every /api/ request.
	APIKey string
}

// Server serves documents from a fetcher.
type Server struct {
	opts     Options
	source   transport.Fetcher
	hub      *Hub
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// New creates a server reading documents from source.
func New(opts Options, source transport.Fetcher, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		opts:   opts,
		source: source,
		hub:    NewHub(log),
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Hub returns the websocket hub; register it as a texture sink.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed handler wrapped in recovery and access logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/{path:.*}", s.handleAPI).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/ws/idmap", s.handleIDMap)

	access := zap.NewStdLog(s.log.Named("access")).Writer()
	var h http.Handler = handlers.LoggingHandler(access, r)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.log)))(h)
	return h
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	if s.opts.APIKey != "" {
		key := r.URL.Query().Get("key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.opts.APIKey)) != 1 {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
			return
		}
	}

	uri := mux.Vars(r)["path"]
	data, err := s.source.Fetch(r.Context(), uri)
	if err != nil {
		var status *transport.StatusError
		if errors.As(err, &status) {
			http.Error(w, http.StatusText(status.Status), status.Status)
			return
		}
		s.log.Error("serving document", zap.String("uri", uri), zap.Error(err))
		http.Error(w, "fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", contentType(uri))
	w.Write(data)
}

func contentType(uri string) string {
	if strings.HasSuffix(uri, ".json") || strings.HasSuffix(uri, transport.MappingSuffix) {
		return "application/json"
	}
	return "application/octet-stream"
}

func (s *Server) handleIDMap(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	s.hub.register(conn)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.opts.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mmcdole/convo/internal/domain"
)

// payloadSource is the session store as seen by the server (consumer-defined interface)
type payloadSource interface {
	Get(id string) (domain.Payload, bool)
}

// Server exposes session payloads on a loopback address so an external
// player can stream them by URL.
type Server struct {
	source   payloadSource
	logger   *slog.Logger
	listener net.Listener
	srv      *http.Server
}

// NewServer binds a loopback listener on a random port
func NewServer(source payloadSource, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := &Server{source: source, logger: logger, listener: ln}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler serving GET /blob/{id}
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /blob/{id}", s.handleBlob)
	return mux
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, ok := s.source.Get(id)
	if !ok {
		s.logger.Debug("blob not found", "id", id)
		http.Error(w, domain.ErrResourceNotFound.Error(), http.StatusNotFound)
		return
	}

	if p.ContentType != "" {
		w.Header().Set("Content-Type", p.ContentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(p.Data)
}

// URL returns the playable URL for a resource ID
func (s *Server) URL(id string) string {
	return "http://" + s.listener.Addr().String() + "/blob/" + id
}

// Serve blocks serving requests until Shutdown
func (s *Server) Serve() error {
	s.logger.Info("session server listening", "addr", s.listener.Addr().String())
	if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Package server streams highlight decisions to remote renderers over
// websocket sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/metrics"
	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/parser"
)

// Server hands every websocket connection its own widget built from a
// shared base configuration.
type Server struct {
	base     highlight.Config
	logger   *slog.Logger
	metrics  *metrics.Collector
	upgrader websocket.Upgrader
}

// New creates a server for the given base widget configuration.
// The base config is validated by building a throwaway widget.
func New(base highlight.Config, logger *slog.Logger, collector *metrics.Collector) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if _, err := highlight.NewWidget(base); err != nil {
		return nil, fmt.Errorf("base widget: %w", err)
	}

	return &Server{
		base:    base,
		logger:  logger,
		metrics: collector,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Renderers may be served from any origin
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}, nil
}

// Handler returns the HTTP routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleSession)
	mux.HandleFunc("GET /config", s.handleConfig)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return LoggingMiddleware(s.logger, mux)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting relationships server", "addr", addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Metrics returns the server's collector.
func (s *Server) Metrics() *metrics.Collector {
	return s.metrics
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, parser.FromConfig(s.base))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// session is one connected renderer.
type session struct {
	id      string
	conn    *websocket.Conn
	widget  *highlight.Widget
	current models.Selection
	logger  *slog.Logger

	// Select callback payloads waiting to be sent after the decision.
	pending []Response
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := &session{
		id:     uuid.New().String(),
		conn:   conn,
		logger: s.logger,
	}
	sess.logger = s.logger.With("session", sess.id)

	cfg := s.base
	cfg.OnSelect = sess.onSelect
	sess.widget, err = highlight.NewWidget(cfg,
		highlight.WithID(sess.id),
		highlight.WithLogger(s.logger),
		highlight.WithCollector(s.metrics),
	)
	if err != nil {
		// The base config was validated in New.
		sess.logger.Error("create widget", "error", err)
		return
	}
	s.metrics.SessionOpened()
	sess.logger.Info("session opened", "remote", r.RemoteAddr)

	if err := sess.sendDecision(sess.widget.Leave()); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.logger.Debug("session read ended", "error", err)
			}
			sess.logger.Info("session closed")
			return
		}
		if err := sess.handle(data); err != nil {
			sess.logger.Warn("session write failed", "error", err)
			return
		}
	}
}

// handle processes one client message. Only write failures are returned;
// protocol and selection errors are reported to the client.
func (ss *session) handle(data []byte) error {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return ss.sendError(fmt.Errorf("decode request: %w", err))
	}

	switch req.Type {
	case MsgHover:
		if !req.Set.Valid() {
			return ss.sendError(fmt.Errorf("%w: hover requires set a or b", models.ErrInvalidSelection))
		}
		sel := models.Select(req.Set, req.Index)
		decision, err := ss.widget.Hover(sel)
		if err != nil {
			return ss.sendError(err)
		}
		ss.current = sel
		return ss.sendDecision(decision)

	case MsgLeave:
		ss.current = models.None()
		return ss.sendDecision(ss.widget.Leave())

	case MsgSelect:
		decision, err := ss.widget.Select(req.Set, req.Index)
		if err != nil {
			ss.pending = nil
			return ss.sendError(err)
		}
		ss.current = decision.Selection
		if err := ss.sendDecision(decision); err != nil {
			return err
		}
		return ss.flushPending()

	case MsgReconfigure:
		if req.Update == nil {
			return ss.sendError(errors.New("reconfigure without update"))
		}
		if err := ss.widget.Reconfigure(*req.Update); err != nil {
			return ss.sendError(err)
		}
		// Re-resolve the current selection against the new configuration.
		decision, err := ss.widget.Hover(ss.current)
		if err != nil {
			ss.current = models.None()
			decision = ss.widget.Leave()
		}
		return ss.sendDecision(decision)

	default:
		return ss.sendError(fmt.Errorf("unknown message type %q", req.Type))
	}
}

func (ss *session) onSelect(set models.SetID, index int, text string) {
	ss.logger.Info("item selected", "set", set, "index", index, "text", text)
	ss.pending = append(ss.pending, Response{
		Type:    MsgSelected,
		Session: ss.id,
		Set:     set,
		Index:   index,
		Text:    text,
	})
}

func (ss *session) flushPending() error {
	pending := ss.pending
	ss.pending = nil
	for _, resp := range pending {
		if err := ss.conn.WriteJSON(resp); err != nil {
			return err
		}
	}
	return nil
}

func (ss *session) sendDecision(d models.HighlightDecision) error {
	return ss.conn.WriteJSON(Response{Type: MsgDecision, Session: ss.id, Decision: &d})
}

func (ss *session) sendError(err error) error {
	return ss.conn.WriteJSON(Response{
		Type:    MsgError,
		Session: ss.id,
		Error:   err.Error(),
		Code:    ErrorCode(err),
	})
}

// Package client talks to a relationships server: plain HTTP for health and
// stats, websocket sessions for highlight decisions.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/metrics"
	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/server"
)

// Client is an HTTP and websocket client for the relationships server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new client.
// If endpoint is empty, uses RELATIONSHIPS_SERVER_URL or defaults to localhost:8585.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("RELATIONSHIPS_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8585"
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// RemoteError is an error reported by the server inside a session.
// It unwraps to the matching sentinel error from the models package.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server: %s", e.Message)
}

func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case server.CodeInvalidSelection:
		return models.ErrInvalidSelection
	case server.CodeInvalidConfiguration:
		return models.ErrInvalidConfiguration
	default:
		return nil
	}
}

// Health checks the server health endpoint.
func (c *Client) Health(ctx context.Context) error {
	body, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(body)) != "ok" {
		return fmt.Errorf("unexpected health response: %q", body)
	}
	return nil
}

// Stats fetches the server metrics snapshot.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	body, err := c.get(ctx, "/stats")
	if err != nil {
		return nil, err
	}
	var snap metrics.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	return &snap, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Session is one websocket session. Calls must not be made concurrently.
type Session struct {
	conn *websocket.Conn
	id   string

	// Initial is the decision the server sent on connect (no selection).
	Initial models.HighlightDecision
}

// SelectedEvent is the select callback payload relayed by the server.
type SelectedEvent struct {
	Set   models.SetID
	Index int
	Text  string
}

// Connect opens a session and reads the server's initial decision.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	wsEndpoint := c.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	u, err := url.Parse(wsEndpoint + "/ws")
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	s := &Session{conn: conn}
	resp, err := s.read(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read initial decision: %w", err)
	}
	decision, err := asDecision(resp)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.id = resp.Session
	s.Initial = decision
	return s, nil
}

// ID returns the server-assigned session id.
func (s *Session) ID() string {
	return s.id
}

// Hover sends a hover event and returns the resulting decision.
func (s *Session) Hover(ctx context.Context, set models.SetID, index int) (models.HighlightDecision, error) {
	return s.roundTrip(ctx, server.Request{Type: server.MsgHover, Set: set, Index: index})
}

// Leave clears the selection.
func (s *Session) Leave(ctx context.Context) (models.HighlightDecision, error) {
	return s.roundTrip(ctx, server.Request{Type: server.MsgLeave})
}

// Reconfigure applies a partial update to the session's widget and returns
// the decision for the current selection under the new configuration.
func (s *Session) Reconfigure(ctx context.Context, u highlight.Update) (models.HighlightDecision, error) {
	return s.roundTrip(ctx, server.Request{Type: server.MsgReconfigure, Update: &u})
}

// Select sends a select event. It returns the decision and the callback
// payload the server relays after it.
func (s *Session) Select(ctx context.Context, set models.SetID, index int) (models.HighlightDecision, SelectedEvent, error) {
	decision, err := s.roundTrip(ctx, server.Request{Type: server.MsgSelect, Set: set, Index: index})
	if err != nil {
		return models.HighlightDecision{}, SelectedEvent{}, err
	}

	resp, err := s.read(ctx)
	if err != nil {
		return models.HighlightDecision{}, SelectedEvent{}, fmt.Errorf("read selected event: %w", err)
	}
	if resp.Type != server.MsgSelected {
		return models.HighlightDecision{}, SelectedEvent{}, fmt.Errorf("expected %s, got %s", server.MsgSelected, resp.Type)
	}
	return decision, SelectedEvent{Set: resp.Set, Index: resp.Index, Text: resp.Text}, nil
}

// Close ends the session with a normal closure.
func (s *Session) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *Session) roundTrip(ctx context.Context, req server.Request) (models.HighlightDecision, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(deadline)
	}
	if err := s.conn.WriteJSON(req); err != nil {
		return models.HighlightDecision{}, fmt.Errorf("send %s: %w", req.Type, err)
	}

	resp, err := s.read(ctx)
	if err != nil {
		return models.HighlightDecision{}, fmt.Errorf("read %s response: %w", req.Type, err)
	}
	return asDecision(resp)
}

func (s *Session) read(ctx context.Context) (server.Response, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	_ = s.conn.SetReadDeadline(deadline)

	var resp server.Response
	if err := s.conn.ReadJSON(&resp); err != nil {
		if ctx.Err() != nil {
			return server.Response{}, ctx.Err()
		}
		return server.Response{}, err
	}
	return resp, nil
}

func asDecision(resp server.Response) (models.HighlightDecision, error) {
	switch resp.Type {
	case server.MsgDecision:
		if resp.Decision == nil {
			return models.HighlightDecision{}, errors.New("decision message without decision")
		}
		return *resp.Decision, nil
	case server.MsgError:
		return models.HighlightDecision{}, &RemoteError{Code: resp.Code, Message: resp.Error}
	default:
		return models.HighlightDecision{}, fmt.Errorf("unexpected message type %q", resp.Type)
	}
}

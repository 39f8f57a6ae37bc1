package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/relationships/internal/client"
	"github.com/raphaelgruber/relationships/internal/highlight"
	"github.com/raphaelgruber/relationships/internal/models"
	"github.com/raphaelgruber/relationships/internal/parser"
	"github.com/raphaelgruber/relationships/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger creates a logger that writes to stderr for test visibility.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func startServer(t *testing.T) (*server.Server, *httptest.Server) {
	t.Helper()
	srv, err := server.New(parser.DemoWidget(), testLogger(), nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew_RejectsInvalidBase(t *testing.T) {
	cfg := parser.DemoWidget()
	cfg.Links = append(cfg.Links, models.Link{A: 10, B: 0})

	_, err := server.New(cfg, nil, nil)
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
}

func TestSession_HoverSelectLeave(t *testing.T) {
	_, ts := startServer(t)
	ctx := testContext(t)

	sess, err := client.New(ts.URL).Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	assert.NotEmpty(t, sess.ID())
	assert.True(t, sess.Initial.Selection.IsNone())
	assert.Equal(t, []int{0, 1, 2, 3}, sess.Initial.ActiveA)
	assert.Equal(t, "Integers", sess.Initial.Text)

	t.Run("hover set a", func(t *testing.T) {
		d, err := sess.Hover(ctx, models.SetA, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, d.ActiveA)
		assert.Equal(t, []int{0, 2}, d.ActiveB)
		assert.Equal(t, "Number two", d.Text)
		assert.Equal(t, models.Select(models.SetA, 1), d.Selection)
	})

	t.Run("select set b relays callback", func(t *testing.T) {
		d, ev, err := sess.Select(ctx, models.SetB, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, d.ActiveA)
		assert.Equal(t, client.SelectedEvent{Set: models.SetB, Index: 1, Text: "Even numbers"}, ev)
	})

	t.Run("invalid selection keeps session", func(t *testing.T) {
		_, err := sess.Hover(ctx, models.SetB, 3)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrInvalidSelection), "got %v", err)

		var remote *client.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Equal(t, server.CodeInvalidSelection, remote.Code)

		_, _, err = sess.Select(ctx, models.SetA, -1)
		assert.ErrorIs(t, err, models.ErrInvalidSelection)

		d, err := sess.Leave(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, d.ActiveB)
	})
}

func TestSession_ReconfigureReflectsNewLinks(t *testing.T) {
	_, ts := startServer(t)
	ctx := testContext(t)

	sess, err := client.New(ts.URL).Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Hover(ctx, models.SetA, 1)
	require.NoError(t, err)

	links := []models.Link{{A: 1, B: 1}}
	desc := "Rewired"
	d, err := sess.Reconfigure(ctx, highlight.Update{Links: &links, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, models.Select(models.SetA, 1), d.Selection, "selection is re-resolved")
	assert.Equal(t, []int{1}, d.ActiveB)

	d, err = sess.Leave(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rewired", d.Text)

	bad := []models.Link{{A: 0, B: 5}}
	_, err = sess.Reconfigure(ctx, highlight.Update{Links: &bad})
	assert.ErrorIs(t, err, models.ErrInvalidConfiguration)
}

func TestSession_ReconfigureDropsVanishedSelection(t *testing.T) {
	_, ts := startServer(t)
	ctx := testContext(t)

	sess, err := client.New(ts.URL).Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Hover(ctx, models.SetA, 3)
	require.NoError(t, err)

	setA := models.ItemSet{Items: models.NewItems("Only")}
	links := []models.Link{}
	d, err := sess.Reconfigure(ctx, highlight.Update{SetA: &setA, Links: &links})
	require.NoError(t, err)
	assert.True(t, d.Selection.IsNone())
	assert.Equal(t, []int{0}, d.ActiveA)
}

func TestSession_SessionsAreIndependent(t *testing.T) {
	_, ts := startServer(t)
	ctx := testContext(t)
	c := client.New(ts.URL)

	s1, err := c.Connect(ctx)
	require.NoError(t, err)
	defer s1.Close()
	s2, err := c.Connect(ctx)
	require.NoError(t, err)
	defer s2.Close()
	assert.NotEqual(t, s1.ID(), s2.ID())

	links := []models.Link{}
	_, err = s1.Reconfigure(ctx, highlight.Update{Links: &links})
	require.NoError(t, err)

	d, err := s2.Hover(ctx, models.SetA, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, d.ActiveB)
}

// dialRaw opens a websocket without the client and consumes the initial
// decision.
func dialRaw(t *testing.T, ts *httptest.Server) (*websocket.Conn, server.Response) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var initial server.Response
	require.NoError(t, conn.ReadJSON(&initial))
	require.Equal(t, server.MsgDecision, initial.Type)
	return conn, initial
}

func TestSession_SelectedFirstItemKeepsIndex(t *testing.T) {
	_, ts := startServer(t)
	conn, _ := dialRaw(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"select","set":"a","index":0}`)))

	var decision server.Response
	require.NoError(t, conn.ReadJSON(&decision))
	require.Equal(t, server.MsgDecision, decision.Type)

	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var selected map[string]any
	require.NoError(t, json.Unmarshal(raw, &selected))
	assert.Equal(t, server.MsgSelected, selected["type"])
	assert.Equal(t, "a", selected["set"])
	assert.Contains(t, selected, "index")
	assert.Equal(t, float64(0), selected["index"])
	assert.Equal(t, "Number one", selected["text"])
}

func TestSession_ReconfigureWithServedDefinition(t *testing.T) {
	_, ts := startServer(t)
	conn, _ := dialRaw(t, ts)

	resp, err := http.Get(ts.URL + "/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	var def map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&def))
	require.Contains(t, def, "set1")

	// Drop the last item so the change is visible in the decision.
	var set1 parser.SetDef
	require.NoError(t, json.Unmarshal(def["set1"], &set1))
	set1.Items = set1.Items[:3]
	set1.Items[2].ImageIndex = nil
	data, err := json.Marshal(set1)
	require.NoError(t, err)

	msg := `{"type":"reconfigure","update":{"set1":` + string(data) + `,"links":[[0,1]]}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))

	var got server.Response
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, server.MsgDecision, got.Type, "error: %s", got.Error)
	assert.Equal(t, []int{0, 1, 2}, got.Decision.ActiveA)

	// The served set decodes as-is too.
	msg = `{"type":"reconfigure","update":{"set1":` + string(def["set1"]) + `,"links":[]}}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, server.MsgDecision, got.Type, "error: %s", got.Error)
	assert.Equal(t, []int{0, 1, 2, 3}, got.Decision.ActiveA)
}

func TestSession_BadRequests(t *testing.T) {
	_, ts := startServer(t)
	conn, initial := dialRaw(t, ts)

	tests := []struct {
		name     string
		payload  string
		wantCode string
	}{
		{"not json", "{nope", server.CodeBadRequest},
		{"unknown type", `{"type":"poke"}`, server.CodeBadRequest},
		{"unknown set", `{"type":"hover","set":"z","index":0}`, server.CodeBadRequest},
		{"hover without set", `{"type":"hover","index":0}`, server.CodeInvalidSelection},
		{"reconfigure without update", `{"type":"reconfigure"}`, server.CodeBadRequest},
		{"opacity out of range", `{"type":"reconfigure","update":{"dim_opacity":3}}`, server.CodeInvalidConfiguration},
		{"set with bad image size", `{"type":"reconfigure","update":{"set1":{"image_size":[1],"items":[]}}}`, server.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)))

			var resp server.Response
			require.NoError(t, conn.ReadJSON(&resp))
			assert.Equal(t, server.MsgError, resp.Type)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, initial.Session, resp.Session)
		})
	}
}

func TestHTTPEndpoints(t *testing.T) {
	_, ts := startServer(t)
	ctx := testContext(t)
	c := client.New(ts.URL)

	require.NoError(t, c.Health(ctx))

	sess, err := c.Connect(ctx)
	require.NoError(t, err)
	_, err = sess.Hover(ctx, models.SetA, 0)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	snap, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Sessions)
	require.NotNil(t, snap.Resolve)
	assert.GreaterOrEqual(t, snap.Resolve.Count, int64(2)) // initial decision + hover

	resp, err := http.Get(ts.URL + "/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var def parser.Definition
	require.NoError(t, json.Unmarshal(body, &def))
	assert.Equal(t, "Integers", def.Description)
	assert.Len(t, def.Set1.Items, 4)
	assert.Len(t, def.Links, 6)
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv, err := server.New(parser.DemoWidget(), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

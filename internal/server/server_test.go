package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/koikoi/engine"
	"github.com/jason-s-yu/koikoi/internal/auth"
	"github.com/jason-s-yu/koikoi/internal/database"
	"github.com/jason-s-yu/koikoi/internal/game"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store database.Store) (*Server, *httptest.Server) {
	t.Helper()
	signer, err := auth.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()

	s, err := New(Config{
		Rules:  engine.DefaultRules(),
		Seed:   7,
		CPU:    engine.FirstMatchPolicy{},
		Signer: signer,
		Store:  store,
		Log:    logger,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + query
}

func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ game.GameEventType) game.GameEvent {
	t.Helper()
	for {
		var ev game.GameEvent
		require.NoError(t, wsjson.Read(ctx, conn, &ev))
		if ev.Type == typ {
			return ev
		}
	}
}

func TestNewRequiresSigner(t *testing.T) {
	_, err := New(Config{Rules: engine.DefaultRules()})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["tables"])
}

func TestMatchesDisabledWithoutStore(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/matches")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMatchesListsNewestFirst(t *testing.T) {
	store, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	base := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	older := database.MatchRecord{ID: uuid.New(), Seed: 1, Players: [2]string{"A", "CPU"}, Winner: 0, StartedAt: base, FinishedAt: base.Add(time.Minute)}
	newer := database.MatchRecord{ID: uuid.New(), Seed: 2, Players: [2]string{"B", "CPU"}, Winner: -1, StartedAt: base, FinishedAt: base.Add(time.Hour)}
	ctx := context.Background()
	require.NoError(t, store.SaveMatch(ctx, older))
	require.NoError(t, store.SaveMatch(ctx, newer))

	_, ts := newTestServer(t, store)
	resp, err := http.Get(ts.URL + "/matches?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []database.MatchRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, newer.ID, got[0].ID)

	bad, err := http.Get(ts.URL + "/matches?limit=zero")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestWebSocketMatchAndResume(t *testing.T) {
	s, ts := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(ts, "name=Ann"), nil)
	require.NoError(t, err)

	session := readUntil(t, ctx, conn, game.EventPrivateSession)
	token, _ := session.Payload["token"].(string)
	require.NotEmpty(t, token)
	gameID := session.Payload["gameId"]

	sync := readUntil(t, ctx, conn, game.EventPrivateSyncState)
	require.NotNil(t, sync.State)
	assert.Equal(t, gameID, sync.State.GameID.String())
	assert.Equal(t, "Ann", sync.State.Players[0].Username)
	assert.NotEmpty(t, sync.State.Players[0].Hand)
	assert.Empty(t, sync.State.Players[1].Hand)
	assert.Equal(t, 1, s.TableCount())

	require.NoError(t, wsjson.Write(ctx, conn, game.GameAction{ActionType: game.ActionSync}))
	again := readUntil(t, ctx, conn, game.EventPrivateSyncState)
	assert.Equal(t, sync.State.Round, again.State.Round)
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))

	resumed, _, err := websocket.Dial(ctx, wsURL(ts, "token="+token), nil)
	require.NoError(t, err)
	defer resumed.CloseNow()
	state := readUntil(t, ctx, resumed, game.EventPrivateSyncState)
	assert.Equal(t, gameID, state.State.GameID.String())
	assert.Equal(t, 1, s.TableCount())
}

func TestWebSocketRejectsBadSessions(t *testing.T) {
	_, ts := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(ts, "token=garbage"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	signer, err := auth.NewSigner("test-secret", time.Hour)
	require.NoError(t, err)
	orphan, err := signer.Issue(uuid.New(), uuid.New())
	require.NoError(t, err)
	_, resp, err = websocket.Dial(ctx, wsURL(ts, "token="+orphan), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeliverDropsSlowClientWithoutBlocking(t *testing.T) {
	accepted := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		accepted <- conn
	}))
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	peer, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer peer.CloseNow()

	var conn *websocket.Conn
	select {
	case conn = <-accepted:
	case <-ctx.Done():
		t.Fatal("server side never accepted")
	}

	// The peer never reads, so a close handshake would wait for its reply.
	c := &client{conn: conn, send: make(chan game.GameEvent, 1), done: make(chan struct{})}
	c.send <- game.GameEvent{Type: game.EventPrivateSyncState}

	returned := make(chan struct{})
	go func() {
		c.deliver(game.GameEvent{Type: game.EventPrivateSyncState}, nil)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("deliver blocked on a full buffer")
	}

	select {
	case <-c.done:
	default:
		t.Error("slow client was not marked done")
	}
	_, _, err = peer.Read(ctx)
	assert.Error(t, err, "peer sees the connection dropped")
}

// Package server exposes live matches over WebSocket and finished matches
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/koikoi/engine"
	"github.com/jason-s-yu/koikoi/internal/auth"
	"github.com/jason-s-yu/koikoi/internal/database"
	"github.com/jason-s-yu/koikoi/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer        = 64
	writeTimeout      = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	defaultListLimit  = 20
	maxListLimit      = 100
)

// Config wires the server's collaborators. Store and Historian are optional.
type Config struct {
	Addr      string
	Rules     engine.Rules
	Seed      uint64 // fixed seed for every match; 0 picks one per match
	CPU       engine.Policy
	Origins   []string
	Signer    *auth.Signer
	Store     database.Store
	Historian game.ActionPublisher
	Log       logrus.FieldLogger
}

// Server owns the table registry and the HTTP listener.
type Server struct {
	cfg        Config
	log        logrus.FieldLogger
	httpServer *http.Server

	mu     sync.Mutex
	tables map[uuid.UUID]*table
	saves  sync.WaitGroup
}

// table is one live match and the socket of its human seat.
type table struct {
	game *game.KoikoiGame

	mu     sync.Mutex
	client *client
}

// client is one WebSocket connection. Events are queued so broadcasting
// never blocks the game lock.
type client struct {
	conn *websocket.Conn
	send chan game.GameEvent
	done chan struct{}
	once sync.Once
}

// New builds a server. It does not listen until ListenAndServe.
func New(cfg Config) (*Server, error) {
	if cfg.Signer == nil {
		return nil, errors.New("server needs a session signer")
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	s := &Server{
		cfg:    cfg,
		log:    cfg.Log,
		tables: make(map[uuid.UUID]*table),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /matches", s.handleMatches)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// ListenAndServe runs the HTTP server until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	s.log.WithField("addr", s.cfg.Addr).Info("listening")
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// TableCount reports how many matches are live.
func (s *Server) TableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "tables": s.TableCount()})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		http.Error(w, "match history is disabled", http.StatusServiceUnavailable)
		return
	}
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}
	matches, err := s.cfg.Store.ListMatches(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("list matches")
		http.Error(w, "could not list matches", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []database.MatchRecord{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// handleWS starts a new match, or resumes one when a session token is given.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	var (
		t       *table
		player  uuid.UUID
		resumed bool
	)
	if token := r.URL.Query().Get("token"); token != "" {
		sess, err := s.cfg.Signer.Verify(token)
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}
		t = s.lookup(sess.GameID)
		if t == nil || t.game.HumanID() != sess.PlayerID {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		player, resumed = sess.PlayerID, true
	} else {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "You"
		}
		var err error
		t, err = s.newTable(name)
		if err != nil {
			s.log.WithError(err).Error("create match")
			http.Error(w, "could not create match", http.StatusInternalServerError)
			return
		}
		player = t.game.HumanID()
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.cfg.Origins})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept")
		if !resumed {
			s.remove(t.game.ID)
		}
		return
	}
	defer conn.CloseNow()
	log := s.log.WithFields(logrus.Fields{"game_id": t.game.ID, "player_id": player})
	c := &client{conn: conn, send: make(chan game.GameEvent, sendBuffer), done: make(chan struct{})}
	t.attach(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go c.writeLoop(ctx, log)

	if resumed {
		t.game.Mu.Lock()
		t.game.HandleReconnect(player)
		t.game.Mu.Unlock()
		log.Info("session resumed")
	} else {
		token, err := s.cfg.Signer.Issue(t.game.ID, player)
		if err != nil {
			log.WithError(err).Error("issue session token")
			conn.Close(websocket.StatusInternalError, "could not issue session")
			s.remove(t.game.ID)
			return
		}
		c.deliver(game.GameEvent{
			Type: game.EventPrivateSession,
			Payload: map[string]interface{}{
				"token":    token,
				"gameId":   t.game.ID.String(),
				"playerId": player.String(),
			},
		}, log)
		if err := t.game.Start(); err != nil {
			log.WithError(err).Error("start match")
			conn.Close(websocket.StatusInternalError, "could not start match")
			s.remove(t.game.ID)
			return
		}
	}

	s.readLoop(ctx, t, c, player, log)
}

// readLoop feeds client actions to the game until the socket closes.
func (s *Server) readLoop(ctx context.Context, t *table, c *client, player uuid.UUID, log logrus.FieldLogger) {
	defer func() {
		c.close()
		if !t.detach(c) {
			return
		}
		t.game.Mu.Lock()
		t.game.HandleDisconnect(player)
		over := t.game.GameOver
		t.game.Mu.Unlock()
		if over {
			s.remove(t.game.ID)
		}
	}()

	for {
		var action game.GameAction
		if err := wsjson.Read(ctx, c.conn, &action); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				log.WithError(err).Debug("read failed")
			}
			return
		}
		t.game.Mu.Lock()
		t.game.HandlePlayerAction(player, action)
		t.game.Mu.Unlock()
	}
}

func (s *Server) newTable(name string) (*table, error) {
	seed := s.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	g, err := game.NewKoikoiGame(seed, s.cfg.Rules, name, s.cfg.CPU, s.log)
	if err != nil {
		return nil, err
	}
	g.Players[0].Connected = true
	g.Store = s.cfg.Store
	g.Historian = s.cfg.Historian
	g.SaveWG = &s.saves

	t := &table{game: g}
	human := g.HumanID()
	g.BroadcastFn = t.broadcast
	g.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.GameEvent) {
		if playerID == human {
			t.broadcast(ev)
		}
	}
	g.OnGameEnd = func(gameID uuid.UUID, rec database.MatchRecord) {
		s.log.WithFields(logrus.Fields{
			"game_id": gameID,
			"winner":  rec.Winner,
			"rounds":  len(rec.Rounds),
		}).Info("match finished")
	}

	s.mu.Lock()
	s.tables[g.ID] = t
	s.mu.Unlock()
	return t, nil
}

// WaitForSaves blocks until every finished match has been written to the
// store. Call it after ListenAndServe returns and before closing the store.
func (s *Server) WaitForSaves() {
	s.saves.Wait()
}

func (s *Server) lookup(id uuid.UUID) *table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[id]
}

func (s *Server) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.tables, id)
	s.mu.Unlock()
}

// attach makes c the table's socket, closing any previous one.
func (t *table) attach(c *client) {
	t.mu.Lock()
	old := t.client
	t.client = c
	t.mu.Unlock()
	if old != nil {
		old.close()
		old.conn.Close(websocket.StatusPolicyViolation, "session resumed elsewhere")
	}
}

// detach clears c if it is still the table's socket.
func (t *table) detach(c *client) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != c {
		return false
	}
	t.client = nil
	return true
}

// broadcast is called with the game lock held.
func (t *table) broadcast(ev game.GameEvent) {
	t.mu.Lock()
	c := t.client
	t.mu.Unlock()
	if c != nil {
		c.deliver(ev, nil)
	}
}

func (c *client) deliver(ev game.GameEvent, log logrus.FieldLogger) {
	select {
	case <-c.done:
	case c.send <- ev:
	default:
		if log != nil {
			log.WithField("event", ev.Type).Warn("send buffer full, dropping client")
		}
		c.close()
		// Callers hold the game lock, so skip the close handshake.
		c.conn.CloseNow()
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) writeLoop(ctx context.Context, log logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case ev := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, ev)
			cancel()
			if err != nil {
				log.WithError(err).Debug("write failed")
				c.close()
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

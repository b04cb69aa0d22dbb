/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Promptphone Telephone Game
//
// The first player fills in the blanks of a mad lib card. That prompt becomes
// an image, the next player describes the image in a limited number of words,
// their description becomes the next image, and so on down the line. At the
// end the whole chain is replayed and scored on how much of the original
// survived. Optionally an AI saboteur pads each description with words of
// its own.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - First connection to a game becomes host and controls settings and rounds
// - Players identified by cookie (playerID)
// - Mid-round snapshots only reveal what each player is allowed to see
// - One submission in flight at a time; turn timers pause while it runs
// - Games auto-reaped after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"

	"github.com/Seednode/promptphone/games/telephone"
)

const (
	clientRate  rate.Limit = 20
	clientBurst int        = 40
)

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	limiter  *rate.Limiter
}

type request struct {
	client *Client
	msg    ClientMessage
}

// forcedSubmit is the timer's half of the race with a manual submit.
type forcedSubmit struct {
	turn     int
	playerID string
	text     string
}

type timerTick struct {
	turn      int
	remaining int
}

type Hub struct {
	id  string
	cfg *Config
	svc *services

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	joins    chan request
	hosts    chan request
	plays    chan request
	results  chan turnResult
	scores   chan roundScore
	forced   chan forcedSubmit
	ticks    chan timerTick
	quit     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex

	createdAt    time.Time
	lastActive   time.Time
	hostPlayerID string
	closed       bool

	state   telephone.GameState
	deck    *telephone.Deck
	drafts  map[string]string
	timer   *telephone.TurnTimer
	turn    int // bumped whenever the turn in progress changes
	pending *pendingTurn
	scoring bool
}

func newHub(cfg *Config, svc *services, gameID string) *Hub {
	now := time.Now()
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		id:         gameID,
		cfg:        cfg,
		svc:        svc,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		joins:      make(chan request),
		hosts:      make(chan request),
		plays:      make(chan request),
		results:    make(chan turnResult),
		scores:     make(chan roundScore),
		forced:     make(chan forcedSubmit),
		ticks:      make(chan timerTick),
		quit:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		createdAt:  now,
		lastActive: now,
		state:      telephone.NewGame(gameID, telephone.DefaultSettings()),
		deck:       svc.newDeck(),
		drafts:     make(map[string]string),
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			return

		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

			if c.playerID != "" {
				go h.scheduleRemoval(c.playerID, h.cfg.playerTimeout)
			}

		case r := <-h.joins:
			h.handleJoin(r)

		case r := <-h.hosts:
			h.handleHostCommand(r)

		case r := <-h.plays:
			h.handlePlay(r)

		case res := <-h.results:
			h.handleResult(res)

		case sc := <-h.scores:
			h.handleScore(sc)

		case f := <-h.forced:
			h.handleForced(f)

		case t := <-h.ticks:
			h.handleTick(t)
		}
	}
}

// enqueue hands a value to the run loop unless the hub has been reaped.
func enqueue[T any](h *Hub, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	// First connection becomes host
	if h.hostPlayerID == "" {
		h.hostPlayerID = c.playerID
	}

	h.clients[c] = true

	info := SessionInfoMessage{
		Type:     "session_info",
		GameID:   h.id,
		PlayerID: c.playerID,
		IsHost:   h.hostPlayerID == c.playerID,
		Modes:    telephone.Modes(),
	}
	for _, p := range h.state.Players {
		if p.ID == c.playerID {
			info.IsExisting = true
			info.Name = p.Name
			break
		}
	}

	h.sendLocked(c, info)
	h.sendLocked(c, h.snapshotLocked(c.playerID))
}

func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) sendToPlayerLocked(playerID string, msg any) {
	for c := range h.clients {
		if c.playerID == playerID {
			h.sendLocked(c, msg)
		}
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

func (h *Hub) snapshotLocked(viewerID string) GameStateMessage {
	current, yourTurn := h.state.CurrentPlayer()

	msg := GameStateMessage{
		Type:      "game_state",
		State:     snapshotFor(h.state, viewerID),
		IsHost:    viewerID == h.hostPlayerID,
		YourTurn:  yourTurn && current.ID == viewerID,
		Pending:   h.pending != nil,
		WordLimit: int(h.state.WordLimit()),
	}

	if h.timer != nil && h.timer.Running() {
		msg.TimerRunning = true
		msg.TimeRemaining = h.timer.Remaining()
	}

	return msg
}

func (h *Hub) broadcastStateLocked() {
	for c := range h.clients {
		h.sendLocked(c, h.snapshotLocked(c.playerID))
	}
}

// scheduleRemoval waits for d, and if no client with this playerID
// is currently connected, drops that player from the game.
func (h *Hub) scheduleRemoval(playerID string, d time.Duration) {
	select {
	case <-time.After(d):
	case <-h.quit:
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for client := range h.clients {
		if client.playerID == playerID {
			return
		}
	}

	if h.applyLocked(telephone.RemovePlayerEvent{PlayerID: playerID}) {
		logf(h.cfg, "GAMES: Player %s timed out of %s", playerID, h.id)
	}
}

func (h *Hub) handleJoin(r request) {
	c := r.client

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	switch r.msg.Type {
	case "join":
		name := strings.TrimSpace(r.msg.Name)
		if name == "" {
			return
		}

		for _, p := range h.state.Players {
			if p.ID == c.playerID {
				h.sendLocked(c, h.snapshotLocked(c.playerID))
				return
			}
		}

		before := len(h.state.Players)
		if !h.applyLocked(telephone.AddPlayerEvent{Player: telephone.NewPlayer(c.playerID, name)}) {
			if h.state.Status != telephone.StatusSetup {
				h.sendLocked(c, newError("This game has already started."))
			} else if before >= h.state.Settings.MaxPlayers {
				h.sendLocked(c, newError("This game is full."))
			} else {
				h.sendLocked(c, newError("That name is already taken. Please choose a different name."))
			}
			return
		}

		logf(h.cfg, "GAMES: Player %q joined %s", name, h.id)

	case "leave":
		if h.applyLocked(telephone.RemovePlayerEvent{PlayerID: c.playerID}) {
			logf(h.cfg, "GAMES: Player %s left %s", c.playerID, h.id)
		}
	}
}

// handleHostCommand processes host commands: settings, start_game,
// next_round and reset.
func (h *Hub) handleHostCommand(r request) {
	c := r.client
	msg := r.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	// Only the host may issue these commands
	if h.hostPlayerID == "" || c.playerID != h.hostPlayerID {
		h.sendLocked(c, newError("Only the host can do that."))
		return
	}

	switch msg.Type {
	case "settings":
		if msg.Settings == nil {
			return
		}

		h.applyLocked(telephone.UpdateSettingsEvent{Settings: telephone.MergeSettings(h.state.Settings, *msg.Settings)})

	case "start_game":
		if !h.applyLocked(telephone.StartGameEvent{Card: h.deck.Draw()}) {
			h.sendLocked(c, newError("At least two players are needed to start."))
			return
		}

		logf(h.cfg, "GAMES: Started %s with %d players", h.id, len(h.state.Players))

	case "next_round":
		// A round everyone abandoned before the first turn has nothing to score.
		if h.state.Status == telephone.StatusReplay && !h.state.Scored() && len(h.state.Turns) > 0 {
			h.sendLocked(c, newError("This round is still being scored."))
			return
		}

		if h.applyLocked(telephone.StartNextRoundEvent{Card: h.deck.Draw()}) {
			logf(h.cfg, "GAMES: Round %d of %d in %s", h.state.CurrentRound, h.state.TotalRounds, h.id)
		}

	case "reset":
		h.applyLocked(telephone.ResetGameEvent{ID: h.id})

		logf(h.cfg, "GAMES: Reset %s", h.id)
	}
}

// applyLocked runs one event through the state machine and tells everyone
// about the result. It reports whether the event changed anything.
func (h *Hub) applyLocked(e telephone.Event) bool {
	prev := h.state
	next := telephone.Apply(prev, e)

	if sameState(prev, next) {
		return false
	}

	h.state = next

	prevCur, _ := prev.CurrentPlayer()
	nextCur, _ := next.CurrentPlayer()

	if prev.Status != next.Status ||
		prev.CurrentRound != next.CurrentRound ||
		len(prev.Turns) != len(next.Turns) ||
		prevCur.ID != nextCur.ID {
		h.nextTurnLocked()
	}

	if next.Status == telephone.StatusReplay && !next.Scored() && !h.scoring && len(next.Turns) > 0 {
		h.startScoringLocked()
	}

	h.broadcastStateLocked()

	return true
}

// sameState spots the no-op result of an illegal transition. Every legal
// transition clones the slices it touches, so identity is enough.
func sameState(a, b telephone.GameState) bool {
	return a.Status == b.Status &&
		a.ID == b.ID &&
		a.Settings == b.Settings &&
		a.CurrentTurnIndex == b.CurrentTurnIndex &&
		a.CurrentRound == b.CurrentRound &&
		a.RoundScore == b.RoundScore &&
		a.Card == b.Card &&
		samePlayers(a.Players, b.Players) &&
		len(a.Turns) == len(b.Turns)
}

func samePlayers(a, b []telephone.Player) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// closeAll disconnects all clients of this hub (used by reaper).
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	if h.timer != nil {
		h.timer.Stop()
	}
	h.cancel()
	close(h.quit)

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "promptphone_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	svc         *services
}

func newGameManager(idleTimeout time.Duration, svc *services) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		svc:         svc,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gm.svc, gameID)
	gm.hubs[gameID] = hub
	go hub.run()
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs that have been idle since before cutoff.
func (gm *GameManager) reap(cutoff time.Time) int {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	reaped := 0
	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
			reaped++
		}
	}

	return reaped
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		gm.reap(time.Now().Add(-gm.idleTimeout))
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "SERVE: Websocket upgrade for %s failed: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
			limiter:  rate.NewLimiter(clientRate, clientBurst),
		}

		if !enqueue(hub, hub.register, client) {
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		enqueue(h, h.unreg, c)
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		// Flooding clients lose messages rather than stalling the hub.
		if !c.limiter.Allow() {
			continue
		}

		ch := h.route(msg.Type)
		if ch == nil {
			// ignore unknown types
			continue
		}

		if !enqueue(h, ch, request{client: c, msg: msg}) {
			return
		}
	}
}

// route picks the run loop channel for a client message type, or nil.
func (h *Hub) route(msgType string) chan request {
	switch msgType {
	case "join", "leave":
		return h.joins
	case "settings", "start_game", "next_round", "reset":
		return h.hosts
	case "reveal", "draft", "submit", "fight_back":
		return h.plays
	}

	return nil
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerTelephoneGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerTelephoneGame(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) *GameManager {
	gm := newGameManager(cfg.sessionTimeout, newServices(cfg))

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg, "telephone", errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return gm
}

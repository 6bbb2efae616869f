package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"spinwheel"
)

// ============================================================================
// State WebSocket: hub + per-client pumps + broadcaster
// ============================================================================
//
// This file implements:
//   - A Hub that tracks connected WebSocket clients
//   - Per-client write pumps so one slow client doesn't block others
//   - A broadcaster loop that reads engine events and fans out
//
// Rules:
//   - The engine stays daemon-owned; the initial snapshot goes through the
//     daemon loop like any other request.
//   - Slow clients are disconnected when their send buffer fills.
//   - Messages are JSON text frames with an envelope: {type, ts, data}.
//   - The first message on connect is "state_init" with a StateSnapshot.
//   - Clients may send input envelopes (touch_began, spin, ...) which are
//     forwarded to the daemon.
//
// ============================================================================

// wsOutboundEvent is a pre-typed, externally-consumable event.
type wsOutboundEvent struct {
	Type string
	Data any
	At   time.Time // zero means "now"
}

// envelope is the wire format envelope for WS messages.
type envelope struct {
	Type string     `json:"type"`
	Ts   *time.Time `json:"ts,omitempty"`
	Data any        `json:"data,omitempty"`
}

// ============================================================================
// Hub
// ============================================================================

type Hub struct {
	logger *slog.Logger

	// Buffered broadcast channel for already-serialized JSON frames.
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.Mutex
	clients map[*Client]struct{}

	sendBuf int
}

type HubConfig struct {
	// SendBuf is the per-client outbound queue size. Zero uses a default.
	SendBuf int

	// BroadcastBuf is the hub inbound broadcast queue size. Zero uses a default.
	BroadcastBuf int
}

// NewHub constructs a hub. Call Run(ctx) to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}

	return &Hub{
		logger:     logger,
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		clients:    make(map[*Client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is canceled.
// It disconnects all clients on shutdown.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("ws hub starting")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("ws hub stopping (context canceled)")
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered", "client", c.id, "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			// Collect slow clients first, then remove them after we unlock.
			var slow []*Client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.closeSend()
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		// Closing send signals writePump to exit.
		c.closeSend()

		h.logger.Info("ws client disconnected", "client", c.id, "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}

// BroadcastBytes enqueues a pre-serialized JSON WS frame for broadcast.
// It never blocks; if the hub queue is full it drops the message.
func (h *Hub) BroadcastBytes(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("ws hub broadcast queue full, dropping message", "bytes", len(msg))
	}
}

// ============================================================================
// Client
// ============================================================================

type Client struct {
	hub *Hub

	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once

	remoteAddr string
	logger     *slog.Logger
}

// NewClient creates a client with a buffered send channel.
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	sendBuf := 32
	if hub != nil && hub.sendBuf > 0 {
		sendBuf = hub.sendBuf
	}
	id := uuid.NewString()
	return &Client{
		hub:        hub,
		id:         id,
		conn:       conn,
		send:       make(chan []byte, sendBuf),
		remoteAddr: remoteAddr,
		logger:     logger.With("client", id),
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

const (
	writeWait = 5 * time.Second

	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	// maxInboundMessage bounds client input envelopes.
	maxInboundMessage = 4096
)

// wsRotationCoalesceWindow is the maximum time window during which bursty
// rotation deltas are summed before broadcasting to clients.
const wsRotationCoalesceWindow = 50 * time.Millisecond

// closeStatus extracts a human-readable websocket close code / text when possible.
func closeStatus(err error) (code int, text string, ok bool) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text, true
	}
	return 0, "", false
}

// writePump writes messages from the send queue to the websocket.
// It exits on write error or when send is closed.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: hub is disconnecting us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logExit("writePump", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logExit("writePump", err)
				return
			}
		}
	}
}

// readPump reads input envelopes from the client and forwards them to the
// daemon. It exits on read error, then unregisters the client.
func (c *Client) readPump(ctx context.Context, msgs chan<- Message) {
	c.conn.SetReadLimit(maxInboundMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logExit("readPump", err)
			if c.hub != nil {
				c.hub.unregister <- c
			}
			return
		}

		c.forwardInput(data, msgs)
	}
}

// forwardInput decodes one client frame and queues it for the daemon without
// blocking the read loop.
func (c *Client) forwardInput(data []byte, msgs chan<- Message) {
	if msgs == nil {
		return
	}
	in, err := spinwheel.UnmarshalInput(data)
	if err != nil {
		c.logger.Debug("ws ignoring client frame", "error", err)
		return
	}
	select {
	case msgs <- InputReceived{Input: in, Origin: "ws"}:
	default:
		c.logger.Warn("message queue full, dropping ws input")
	}
}

func (c *Client) logExit(pump string, err error) {
	if errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	if code, text, ok := closeStatus(err); ok {
		c.logger.Info("ws "+pump+" exiting (close)", "remote_addr", c.remoteAddr, "code", code, "reason", text)
	} else {
		c.logger.Info("ws "+pump+" exiting (error)", "remote_addr", c.remoteAddr, "error", err)
	}
}

// ============================================================================
// HTTP Handler + server wiring helpers
// ============================================================================

type Server struct {
	logger *slog.Logger

	hub *Hub

	// Daemon loop input: snapshot requests on connect and client inputs.
	msgs chan<- Message
}

type ServerConfig struct {
	Hub HubConfig
}

// NewServer constructs the WS state server components. Call Register on a mux,
// start hub.Run(ctx), and start the broadcaster loop.
func NewServer(logger *slog.Logger, msgs chan<- Message, cfg ServerConfig) *Server {
	return &Server{
		logger: logger,
		hub:    NewHub(logger, cfg.Hub),
		msgs:   msgs,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// Register registers the WS handler on the provided mux.
func (s *Server) Register(mux *http.ServeMux, path string) {
	if mux == nil {
		return
	}
	mux.HandleFunc(path, s.handleStateWS)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStateWS upgrades and registers a client, then sends state_init.
func (s *Server) handleStateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn, r.RemoteAddr, s.logger)

	// Register client first so broadcasts can reach it.
	s.hub.register <- client

	// The pumps must outlive the request context: net/http cancels it when
	// the handler returns. The hub and socket errors end them instead.
	go client.writePump(context.Background())
	go client.readPump(context.Background(), s.msgs)

	if s.msgs == nil {
		return
	}

	// Request the initial snapshot through the daemon loop. The request
	// context cancels the round-trip if the client goes away.
	reply := make(chan StateSnapshot, 1)
	select {
	case <-r.Context().Done():
		return
	case s.msgs <- RequestSnapshot{Reply: reply}:
	}

	waitCtx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	select {
	case <-waitCtx.Done():
		if !errors.Is(waitCtx.Err(), context.Canceled) {
			s.logger.Warn("ws snapshot request failed", "error", waitCtx.Err())
		}
		return

	case snap := <-reply:
		initMsg, err := marshalWS(wsOutboundEvent{Type: "state_init", Data: snap, At: snap.At})
		if err != nil {
			s.logger.Warn("ws state_init marshal failed", "error", err)
			return
		}
		// If the client is already slow, disconnect.
		select {
		case client.send <- initMsg:
		default:
			s.hub.unregister <- client
		}
	}
}

// ============================================================================
// Broadcaster
// ============================================================================

// RunBroadcaster reads engine events, marshals them and broadcasts them to
// all hub clients. Intended to run as a single goroutine.
//
// Rotation deltas arrive once per tick (60/s by default). They are summed
// and flushed at most once per wsRotationCoalesceWindow; any other event
// flushes the pending sum first so clients always see rotation before the
// selection it led to.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan spinwheel.Event, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	var (
		pendingRot  float64
		hasRot      bool
		rotTimer    *time.Timer
		rotTimerCh  <-chan time.Time
		broadcastEv = func(ev wsOutboundEvent) {
			msg, err := marshalWS(ev)
			if err != nil {
				logger.Warn("ws broadcaster marshal failed", "error", err, "type", ev.Type)
				return
			}
			hub.BroadcastBytes(msg)
		}
	)

	flushPendingRot := func() {
		if !hasRot {
			return
		}
		broadcastEv(wsOutboundEvent{Type: "rotation_delta", Data: spinwheel.RotationDelta{Radians: pendingRot}})
		pendingRot, hasRot = 0, false
	}

	stopRotTimer := func() {
		if rotTimer != nil {
			rotTimer.Stop()
		}
		rotTimer, rotTimerCh = nil, nil
	}

	for {
		select {
		case <-ctx.Done():
			flushPendingRot()
			stopRotTimer()
			return

		case <-rotTimerCh:
			flushPendingRot()
			// The timer is one-shot; the next delta starts a new window.
			rotTimer, rotTimerCh = nil, nil

		case ev, ok := <-src:
			if !ok {
				flushPendingRot()
				stopRotTimer()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}

			if d, isRot := ev.(spinwheel.RotationDelta); isRot {
				pendingRot += d.Radians
				hasRot = true
				if rotTimer == nil {
					rotTimer = time.NewTimer(wsRotationCoalesceWindow)
					rotTimerCh = rotTimer.C
				}
				continue
			}

			out, ok := convertEvent(ev)
			if !ok {
				continue
			}

			flushPendingRot()
			stopRotTimer()
			broadcastEv(out)
		}
	}
}

func marshalWS(ev wsOutboundEvent) ([]byte, error) {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return json.Marshal(envelope{Type: ev.Type, Ts: &ts, Data: ev.Data})
}

// convertEvent maps an engine event to its wire type. Type names match
// spinwheel.MarshalEvent so clients can decode frames with UnmarshalEvent.
func convertEvent(ev spinwheel.Event) (wsOutboundEvent, bool) {
	switch e := ev.(type) {
	case spinwheel.RotationDelta:
		return wsOutboundEvent{Type: "rotation_delta", Data: e}, true
	case spinwheel.SelectionChanged:
		return wsOutboundEvent{Type: "selection_changed", Data: e}, true
	case spinwheel.WedgeTapped:
		return wsOutboundEvent{Type: "wedge_tapped", Data: e}, true
	case spinwheel.DecelerationEnded:
		return wsOutboundEvent{Type: "deceleration_ended"}, true
	case spinwheel.StatusChanged:
		return wsOutboundEvent{Type: "status_changed", Data: e}, true
	default:
		return wsOutboundEvent{}, false
	}
}

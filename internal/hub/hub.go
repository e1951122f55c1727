// Package hub is the ConnectionRegistry: it owns the websocket transport,
// the live connection set, and the bidirectional connection↔player↔room
// mapping. It is deliberately game-agnostic — the teacher's own hub fused
// transport and game dispatch into one type; this package only moves bytes
// and resolves identity, handing parsed inbound frames to an InboundHandler
// supplied by internal/coordinator.
package hub

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hokmgame/server/internal/metrics"
	"github.com/hokmgame/server/internal/ratelimit"
)

// rateLimitErrorFrame is the bad_message error frame sent back on a
// rate-limited drop. Hand-built rather than reusing internal/coordinator's
// errorMsg type to avoid a hub→coordinator import (this package stays
// game-agnostic); the field names match that type's JSON tags exactly.
const rateLimitErrorFrame = `{"type":"error","kind":"validation","code":"bad_message","message":"rate limit exceeded"}`

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// InboundHandler receives a fully-read frame from a Client. Implemented by
// internal/coordinator's dispatcher.
type InboundHandler interface {
	HandleInbound(client *Client, data []byte)
	HandleDisconnect(client *Client)
}

// Client is one live duplex connection.
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	Limiter  *ratelimit.TokenBucket
	registry *Registry
	handler  InboundHandler
}

// Registry is the ConnectionRegistry: the in-memory half of the
// three-tier lookup described in the spec (tier one). Tier two
// (SessionStore re-validation) and tier three (UnauthenticatedError) are
// the coordinator's concern, since they require game/session knowledge
// this package does not have.
type Registry struct {
	mu           sync.RWMutex
	byConnection map[*Client]binding
	byPlayer     map[string]*Client
	metrics      *metrics.Registry
}

type binding struct {
	playerID string
	roomCode string
}

func NewRegistry(m *metrics.Registry) *Registry {
	return &Registry{
		byConnection: make(map[*Client]binding),
		byPlayer:     make(map[string]*Client),
		metrics:      m,
	}
}

// Attach registers the (connection, player, room) triple. A previous
// connection registered for the same player is closed with code
// "replaced".
func (reg *Registry) Attach(c *Client, playerID, roomCode string) {
	reg.mu.Lock()
	previous := reg.byPlayer[playerID]
	reg.byConnection[c] = binding{playerID: playerID, roomCode: roomCode}
	reg.byPlayer[playerID] = c
	reg.mu.Unlock()

	if previous != nil && previous != c {
		previous.closeWithCode(websocket.CloseNormalClosure, "replaced")
	}
}

// Detach removes the triple for c. Returns the player/room it was bound to,
// or ok=false if c was not registered.
func (reg *Registry) Detach(c *Client) (playerID, roomCode string, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	b, found := reg.byConnection[c]
	if !found {
		return "", "", false
	}
	delete(reg.byConnection, c)
	if reg.byPlayer[b.playerID] == c {
		delete(reg.byPlayer, b.playerID)
	}
	return b.playerID, b.roomCode, true
}

// ErrUnknownConnection is returned by FindByConnection on a miss.
type ErrUnknownConnection struct{}

func (ErrUnknownConnection) Error() string { return "hub: connection not registered" }

// ErrNotConnected is returned by FindByPlayer on a miss.
type ErrNotConnected struct{}

func (ErrNotConnected) Error() string { return "hub: player has no live connection" }

func (reg *Registry) FindByConnection(c *Client) (playerID, roomCode string, err error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	b, ok := reg.byConnection[c]
	if !ok {
		return "", "", ErrUnknownConnection{}
	}
	return b.playerID, b.roomCode, nil
}

// ConnectionCount returns the number of live, registered connections.
func (reg *Registry) ConnectionCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.byConnection)
}

func (reg *Registry) FindByPlayer(playerID string) (*Client, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	c, ok := reg.byPlayer[playerID]
	if !ok {
		return nil, ErrNotConnected{}
	}
	return c, nil
}

// Broadcast attempts delivery to every connection bound to roomCode except
// the optional excluded client. A send failure detaches that connection
// but does not abort the rest of the broadcast.
func (reg *Registry) Broadcast(roomCode string, message []byte, except *Client) {
	reg.mu.RLock()
	var targets []*Client
	for c, b := range reg.byConnection {
		if b.roomCode == roomCode && c != except {
			targets = append(targets, c)
		}
	}
	reg.mu.RUnlock()

	for _, c := range targets {
		reg.deliver(c, message)
	}
}

// Send delivers message to exactly one player's live connection, if any.
func (reg *Registry) Send(playerID string, message []byte) error {
	c, err := reg.FindByPlayer(playerID)
	if err != nil {
		return err
	}
	reg.deliver(c, message)
	return nil
}

func (reg *Registry) deliver(c *Client, message []byte) {
	select {
	case c.Send <- message:
		reg.metrics.OutboundMessages.WithLabelValues("delivered").Inc()
	default:
		slog.Warn("hub: dropping slow connection", "client_id", c.ID)
		reg.metrics.OutboundMessages.WithLabelValues("dropped_backpressure").Inc()
		c.closeWithCode(websocket.CloseMessageTooBig, "backpressure")
		reg.Detach(c)
	}
}

func (c *Client) closeWithCode(code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	close(c.Send)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve upgrades an HTTP request to a websocket connection and spawns the
// read/write pumps for it. The upgrader's CheckOrigin accepts every origin;
// Serve takes no allowed-origins list and performs no origin check.
func Serve(reg *Registry, handler InboundHandler, clientID string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("hub: upgrade failed", "error", err)
		return
	}

	client := &Client{
		ID:       clientID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Limiter:  ratelimit.NewTokenBucket(40, 20),
		registry: reg,
		handler:  handler,
	}

	reg.metrics.ConnectionsActive.Inc()
	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.handler.HandleDisconnect(c)
		c.registry.Detach(c)
		c.registry.metrics.ConnectionsActive.Dec()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("hub: unexpected close", "client_id", c.ID, "error", err)
			}
			return
		}
		if !c.Limiter.Allow(1) {
			c.registry.metrics.RateLimitDrops.Inc()
			select {
			case c.Send <- []byte(rateLimitErrorFrame):
			default:
			}
			continue
		}
		c.handler.HandleInbound(c, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

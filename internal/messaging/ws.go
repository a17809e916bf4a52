// Package messaging pushes domain events to connected users over websockets.
package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/api"
	"github.com/sudo-init-do/favo/internal/domain"
	"github.com/sudo-init-do/favo/internal/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type client struct {
	userID int64
	send   chan []byte
}

// Hub tracks open connections per user. It is safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{clients: make(map[int64]map[*client]struct{}), log: log}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; ok {
		delete(set, c)
		close(c.send)
	}
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// Connected reports how many sockets the user has open.
func (h *Hub) Connected(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Deliver pushes ev to every socket of its recipient. A client whose buffer is
// full misses the event rather than blocking the caller.
func (h *Hub) Deliver(ev domain.Event) {
	payload, err := json.Marshal(wsEvent{Type: ev.Type, Data: ev})
	if err != nil {
		h.log.Warn("encode ws event", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.RecipientID] {
		select {
		case c.send <- payload:
		default:
			h.log.Warn("ws client too slow, event dropped",
				zap.Int64("user_id", c.userID), zap.String("event_id", ev.ID))
		}
	}
}

// Authenticator resolves a raw bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (domain.User, error)
}

type Handler struct {
	hub      *Hub
	auth     Authenticator
	timeout  time.Duration
	upgrader websocket.Upgrader
}

// NewHandler builds the /ws handler. origins lists the allowed Origin values;
// "*" allows any.
func NewHandler(hub *Hub, auth Authenticator, timeout time.Duration, origins []string) *Handler {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Handler{
		hub:     hub,
		auth:    auth,
		timeout: timeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[strings.TrimRight(origin, "/")]
			},
		},
	}
}

// GET /ws - browsers cannot set headers on the handshake, so the token may
// also come as ?token=.
func (h *Handler) Serve(c echo.Context) error {
	raw, err := utils.BearerToken(c)
	if err != nil {
		raw = strings.TrimSpace(c.QueryParam("token"))
	}
	if raw == "" {
		return domain.ErrUnauthorized
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	u, err := h.auth.Authenticate(ctx, raw)
	cancel()
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the error response
		return nil
	}

	cl := &client{userID: u.ID, send: make(chan []byte, sendBuffer)}
	h.hub.register(cl)
	go h.writePump(ws, cl)
	h.readPump(ws, cl)
	return nil
}

// discardReads drains client frames until the peer goes away. The protocol is
// server push only.
func discardReads(ws *websocket.Conn) {
	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { return ws.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) readPump(ws *websocket.Conn, cl *client) {
	defer func() {
		h.hub.unregister(cl)
		_ = ws.Close()
	}()
	discardReads(ws)
}

func (h *Handler) writePump(ws *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()
	for {
		select {
		case msg, ok := <-cl.send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

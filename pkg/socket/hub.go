package socket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/redis/go-redis/v9"

	"github.com/quka-ai/studymate/pkg/safe"
	"github.com/quka-ai/studymate/pkg/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 256

	REDIS_CHANNEL = "studymate:events"
)

type envelope struct {
	UserID string          `json:"user_id"`
	Event  json.RawMessage `json:"event"`
}

// Hub fans workspace events out to every websocket a user has open.
// With a redis client events travel through pub/sub so every replica delivers them.
type Hub struct {
	users cmap.ConcurrentMap[string, *userConns]
	redis redis.UniversalClient
}

type userConns struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func NewHub(r redis.UniversalClient) *Hub {
	return &Hub{
		users: cmap.New[*userConns](),
		redis: r,
	}
}

// Publish implements the workspace notifier.
func (h *Hub) Publish(ctx context.Context, event types.Event) {
	raw, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal socket event", slog.String("error", err.Error()), slog.String("type", string(event.Type)))
		return
	}

	if h.redis == nil {
		h.deliver(event.UserID, raw)
		return
	}

	body, _ := json.Marshal(envelope{UserID: event.UserID, Event: raw})
	if err = h.redis.Publish(ctx, REDIS_CHANNEL, body).Err(); err != nil {
		slog.Error("failed to publish socket event to redis, deliver locally", slog.String("error", err.Error()))
		h.deliver(event.UserID, raw)
	}
}

// Run consumes the redis channel until ctx is done. It is a no-op without redis.
func (h *Hub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}
	sub := h.redis.Subscribe(ctx, REDIS_CHANNEL)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e envelope
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				slog.Warn("invalid socket envelope", slog.String("error", err.Error()))
				continue
			}
			h.deliver(e.UserID, e.Event)
		}
	}
}

func (h *Hub) deliver(userID string, raw []byte) {
	uc, ok := h.users.Get(userID)
	if !ok {
		return
	}
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	for c := range uc.clients {
		select {
		case c.send <- raw:
		default:
			slog.Warn("socket client too slow, dropping event", slog.String("user_id", userID))
		}
	}
}

// Online returns the number of open connections of a user.
func (h *Hub) Online(userID string) int {
	uc, ok := h.users.Get(userID)
	if !ok {
		return 0
	}
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.clients)
}

// register adds c inside the map callback, which shares the shard lock with
// unregister, so an emptied set is never removed after c joined it.
func (h *Hub) register(c *Client) {
	h.users.Upsert(c.userID, nil, func(exist bool, old, _ *userConns) *userConns {
		uc := old
		if !exist {
			uc = &userConns{clients: make(map[*Client]struct{})}
		}
		uc.mu.Lock()
		uc.clients[c] = struct{}{}
		uc.mu.Unlock()
		return uc
	})
}

func (h *Hub) unregister(c *Client) {
	h.users.RemoveCb(c.userID, func(_ string, uc *userConns, exists bool) bool {
		if !exists {
			return false
		}
		uc.mu.Lock()
		defer uc.mu.Unlock()
		delete(uc.clients, c)
		return len(uc.clients) == 0
	})
}

// Serve registers conn for userID and blocks until the connection closes.
func (h *Hub) Serve(userID string, conn *websocket.Conn) {
	c := &Client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
	h.register(c)
	safe.Go("socket.writePump", c.writePump)
	c.readPump()
}

func (c *Client) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.send)
	})
}

// readPump only drains control frames, clients never send events.
func (c *Client) readPump() {
	defer func() {
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket closed", slog.String("error", err.Error()), slog.String("user_id", c.userID))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// sendBuffer is how many notifications a client may fall behind before
// it is dropped.
const sendBuffer = 64

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes every notification as JSON to the connected dashboard sockets.
// Each client has its own writer goroutine, so a stalled socket never holds
// up the caller of Notify.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Handler upgrades the request and keeps the socket registered until the
// client goes away. Incoming messages are read and dropped.
func (h *Hub) Handler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	go h.write(cl)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(cl)
			return
		}
	}
}

// write drains the client's queue until drop closes it.
func (h *Hub) write(cl *client) {
	for data := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("dropping websocket client", "error", err)
			h.drop(cl)
			return
		}
	}
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(cl)
}

func (h *Hub) dropLocked(cl *client) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	if cl.conn != nil {
		cl.conn.Close()
	}
}

// Clients is the number of connected sockets.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify queues n for every client without waiting on the network. A client
// whose queue is full is dropped.
func (h *Hub) Notify(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: encode: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			slog.WarnContext(ctx, "dropping slow websocket client", "order_id", n.OrderID)
			h.dropLocked(cl)
		}
	}
	return nil
}

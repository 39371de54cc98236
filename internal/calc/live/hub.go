package live

import (
	"net/http"
	"sync"
	"time"

	"Inertia/internal/repo"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

// Msg is what displays receive. Type is "append" or "clear".
type Msg struct {
	Type   string       `json:"type"`
	Record *repo.Record `json:"record,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Msg
}

// Hub fans result log changes out to connected result tables.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) Appended(rec repo.Record) {
	h.publish(Msg{Type: "append", Record: &rec})
}

func (h *Hub) Cleared() {
	h.publish(Msg{Type: "clear"})
}

// publish never blocks on a slow client; such clients are dropped.
func (h *Hub) publish(msg Msg) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.WithField("remote", c.conn.RemoteAddr().String()).Warn("live: dropping slow client")
			h.removeLocked(c)
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeWS upgrades the request and streams messages until the peer leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("live: upgrade:", err)
		return
	}
	c := &client{conn: conn, send: make(chan Msg, sendBuffer)}
	h.add(c)

	go h.writeLoop(c)

	// reads only detect the close; displays send nothing
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(&msg); err != nil {
			log.Println("live: write:", err)
			h.remove(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/wlan"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Outgoing messages buffered per client before new ones are dropped
	sendBuffer = 16
)

// Message types on the /ws stream.
const (
	MessageSnapshot = "snapshot"
	MessageReply    = "reply"
)

// Message is every frame the server sends.
type Message struct {
	Type     string         `json:"type"`
	Snapshot *wlan.Snapshot `json:"snapshot,omitempty"`
	Reply    *Reply         `json:"reply,omitempty"`
}

// Reply answers one Command.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Command asks the station manager to run an operation.
type Command struct {
	Op string `json:"op"`
	// Mode is "force" (default) or "try".
	Mode      string `json:"mode,omitempty"`
	TimeoutMS int    `json:"timeout_ms,omitempty"`
	// SSID and Password set the network to join before a CONNECT.
	SSID     string `json:"ssid,omitempty"`
	Password string `json:"password,omitempty"`
}

type hub struct {
	ctl      Controller
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	wg      sync.WaitGroup
}

func newHub(ctl Controller) *hub {
	return &hub{
		ctl: ctl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Diagnostics clients are CLIs and scripts, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

type client struct {
	hub  *hub
	conn *websocket.Conn
	addr string
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (h *hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	c := &client{
		hub:  h,
		conn: conn,
		addr: r.RemoteAddr,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	logging.LogConnection(c.addr, "websocket_upgraded")

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	snap := h.ctl.Snapshot()
	c.enqueue(Message{Type: MessageSnapshot, Snapshot: &snap})

	h.wg.Add(2)
	go c.writePump()
	go c.readPump()
}

// broadcast pushes a snapshot to every client without blocking.
func (h *hub) broadcast(s wlan.Snapshot) {
	data, err := json.Marshal(Message{Type: MessageSnapshot, Snapshot: &s})
	if err != nil {
		logging.Error("Failed to marshal snapshot", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.enqueueRaw(data)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}

func (h *hub) wait() { h.wg.Wait() }

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) execute(cmd Command) error {
	op, err := wlan.ParseOperation(cmd.Op)
	if err != nil {
		return err
	}
	if cmd.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must not be negative, got %d", cmd.TimeoutMS)
	}
	timeout := time.Duration(cmd.TimeoutMS) * time.Millisecond

	if op == wlan.OpConnect && cmd.SSID != "" {
		h.ctl.SetConnecting(wlan.Credential{
			Network:  wlan.Network{SSID: cmd.SSID, Locked: cmd.Password != ""},
			Password: cmd.Password,
		})
	}

	switch strings.ToLower(cmd.Mode) {
	case "", "force":
		return h.ctl.Force(op, timeout)
	case "try":
		return h.ctl.Try(op, timeout)
	default:
		return fmt.Errorf("unknown mode %q", cmd.Mode)
	}
}

func (c *client) enqueue(m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		logging.Error("Failed to marshal message", zap.Error(err))
		return
	}
	c.enqueueRaw(data)
}

func (c *client) enqueueRaw(data []byte) {
	select {
	case c.send <- data:
	default:
		logging.Warn("Dropping message for slow client", zap.String("remote_addr", c.addr))
	}
}

// close asks the write pump to send a close frame and drop the
// connection. Safe to call more than once.
func (c *client) close() {
	c.once.Do(func() {
		c.hub.mu.Lock()
		delete(c.hub.clients, c)
		c.hub.mu.Unlock()
		close(c.done)
	})
}

func (c *client) readPump() {
	defer c.hub.wg.Done()
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info("WebSocket read error", zap.String("remote_addr", c.addr), zap.Error(err))
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.enqueue(Message{Type: MessageReply, Reply: &Reply{Error: "invalid command: " + err.Error()}})
			continue
		}
		logging.Info("Remote command",
			zap.String("remote_addr", c.addr),
			zap.String("op", cmd.Op),
			zap.String("mode", cmd.Mode),
			zap.Int("timeout_ms", cmd.TimeoutMS),
			zap.String("ssid", cmd.SSID))

		reply := &Reply{OK: true}
		if err := c.hub.execute(cmd); err != nil {
			reply = &Reply{Error: err.Error()}
		}
		c.enqueue(Message{Type: MessageReply, Reply: reply})
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		logging.LogConnection(c.addr, "websocket_closed")
		c.hub.wg.Done()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
			logging.LogWebSocketMessage(c.addr, "sent", data)
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// Package status broadcasts pipeline progress to websocket clients and other
// subscribers.
package status

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mogaika/rigsplit/logger"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

type Status struct {
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
	Type     int       `json:"type"`
	Progress float32   `json:"progress"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		c.hub.unsubscribe(c.send)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log().Debug("ws write msg error", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log().Debug("ws write ping error", zap.Error(err))
				return
			}
		}
	}
}

// readPump drains control frames so pings and closes get handled.
func (c *client) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.conn.Close()
			return
		}
	}
}

// Hub fans status messages out to subscribers. Slow subscribers miss
// messages instead of blocking the sender.
type Hub struct {
	lock        sync.Mutex
	subscribers map[chan []byte]bool
	lastMessage []byte
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan []byte]bool)}
}

func (h *Hub) log() *zap.Logger { return logger.Named("status") }

// Default is the hub used by the package level helpers.
var Default = NewHub()

// Subscribe returns a channel receiving every following message, primed with
// the last one sent, and the function that cancels the subscription.
func (h *Hub) Subscribe(buffer int) (<-chan []byte, func()) {
	ch := h.subscribe(buffer)
	return ch, func() { h.unsubscribe(ch) }
}

func (h *Hub) subscribe(buffer int) chan []byte {
	ch := make(chan []byte, buffer+1)
	h.lock.Lock()
	defer h.lock.Unlock()
	h.subscribers[ch] = true
	if h.lastMessage != nil {
		ch <- h.lastMessage
	}
	return ch
}

func (h *Hub) unsubscribe(ch chan []byte) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.subscribers[ch] {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// ServeClient streams messages to a websocket connection until it fails.
func (h *Hub) ServeClient(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, send: h.subscribe(32)}
	h.log().Debug("status client connected", zap.String("remote", conn.RemoteAddr().String()))
	go c.readPump()
	go c.writePump()
}

func (h *Hub) Status(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	data, err := json.Marshal(&Status{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress,
	})
	if err != nil {
		h.log().Error("status marshal", zap.Error(err))
		return
	}

	h.lock.Lock()
	defer h.lock.Unlock()
	h.lastMessage = data
	for ch := range h.subscribers {
		select {
		case ch <- data:
		default:
		}
	}
}

func (h *Hub) Info(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func (h *Hub) Error(format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func (h *Hub) Progress(progress float32, format string, a ...interface{}) {
	h.Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}

// StageProgress reports done out of total for a named stage.
func (h *Hub) StageProgress(stage string, done, total int) {
	var p float32
	if total > 0 {
		p = float32(done) / float32(total)
	}
	h.Progress(p, "%s %d/%d", stage, done, total)
}

func Info(format string, a ...interface{}) {
	Default.Info(format, a...)
}

func Error(format string, a ...interface{}) {
	Default.Error(format, a...)
}

func Progress(progress float32, format string, a ...interface{}) {
	Default.Progress(progress, format, a...)
}

// internal/live/hub.go
//
// Websocket fan-out of match state to scoreboard watchers.
// Responsibilities:
//   - Upgrade watcher requests and group connections by match ID.
//   - Join a watcher with its initial state so no later Publish is missed.
//   - Publish a payload to every watcher of a match (marshalled once).
//   - Keep connections healthy with write deadlines and periodic pings.
//
// Watchers are read-only: anything they send is discarded, and a read error
// is how a disconnect is noticed. Slow watchers drop messages rather than
// block the publisher.

package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Message is the envelope sent to watchers.
type Message struct {
	T string `json:"t"`
	P any    `json:"p,omitempty"`
}

// MsgMatchState carries a full match state view.
const MsgMatchState = "MATCH_STATE"

// Watcher is one upgraded connection. It receives nothing until Join.
type Watcher struct {
	ws   *websocket.Conn
	send chan []byte
}

// Hub tracks watchers per match ID.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]map[*Watcher]struct{}
	upgrader websocket.Upgrader
}

// NewHub returns an empty hub. origin restricts browser watchers; "" or "*" accepts any.
func NewHub(origin string) *Hub {
	return &Hub{
		watchers: make(map[string]map[*Watcher]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				o := r.Header.Get("Origin")
				return origin == "" || origin == "*" || o == "" || o == origin
			},
		},
	}
}

// Upgrade turns the request into a websocket watcher.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*Watcher, error) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Watcher{ws: ws, send: make(chan []byte, sendBuffer)}, nil
}

// Join queues initial and registers c for matchID. Every Publish that starts
// after Join returns reaches c.
func (h *Hub) Join(matchID string, c *Watcher, initial any) {
	if b, err := json.Marshal(Message{T: MsgMatchState, P: initial}); err == nil {
		c.send <- b
	}
	h.add(matchID, c)
}

// Watch pumps messages to c and blocks until the watcher leaves.
func (h *Hub) Watch(matchID string, c *Watcher) {
	go writePump(c)
	readPump(c)
	h.remove(matchID, c)
}

// Reject closes a watcher that was never joined.
func (c *Watcher) Reject(code int, reason string) {
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeTimeout))
	_ = c.ws.Close()
}

// Publish sends payload to every watcher of matchID.
func (h *Hub) Publish(matchID string, payload any) {
	b, err := json.Marshal(Message{T: MsgMatchState, P: payload})
	if err != nil {
		log.Warn().Err(err).Str("match", matchID).Msg("encode live message")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.watchers[matchID] {
		select {
		case c.send <- b:
		default:
			log.Debug().Str("match", matchID).Msg("live watcher too slow, message dropped")
		}
	}
}

// Watchers returns how many connections watch matchID.
func (h *Hub) Watchers(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[matchID])
}

// Drop disconnects every watcher of matchID.
func (h *Hub) Drop(matchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.watchers[matchID] {
		close(c.send)
	}
	delete(h.watchers, matchID)
}

// Close disconnects every watcher.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.watchers {
		for c := range set {
			close(c.send)
		}
		delete(h.watchers, id)
	}
}

func (h *Hub) add(matchID string, c *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.watchers[matchID]
	if !ok {
		set = make(map[*Watcher]struct{})
		h.watchers[matchID] = set
	}
	set[c] = struct{}{}
}

// remove unregisters c unless Drop/Close already did.
func (h *Hub) remove(matchID string, c *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.watchers[matchID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.watchers, matchID)
	}
}

func readPump(c *Watcher) {
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(c *Watcher) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

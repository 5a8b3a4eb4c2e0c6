// Package realtime pushes change events to a user's connected clients so
// they reload the affected resource.
package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"journal-backend/internal/service"
)

const sendBuffer = 16

// Conn is the part of a websocket connection the hub uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Message WebSocket 메시지
type Message struct {
	Type    string `json:"type"` // change, ping, pong
	Payload any    `json:"payload,omitempty"`
}

type client struct {
	conn Conn
	send chan []byte
}

// Hub 사용자별 연결 관리
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // userID -> connections
}

var _ service.Notifier = (*Hub)(nil)

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

// Serve registers conn for userID and blocks until the connection closes.
func (h *Hub) Serve(userID string, conn Conn) {
	// 패닉 복구 - 서버 크래시 방지
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ [Realtime] panic recovered: %v", r)
		}
	}()

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(userID, cl)
	log.Printf("[Realtime] connected: user=%s", userID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range cl.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("⚠️ [Realtime] write failed: user=%s, err=%v", userID, err)
				return
			}
		}
	}()

	defer func() {
		h.unregister(userID, cl)
		close(cl.send)
		<-done
		conn.Close()
		log.Printf("[Realtime] disconnected: user=%s", userID)
	}()

	// 연결 유지를 위한 ping/pong 처리
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			pong, _ := json.Marshal(Message{Type: "pong"})
			h.enqueue(userID, cl, pong)
		}
	}
}

func (h *Hub) register(userID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][cl] = struct{}{}
}

func (h *Hub) unregister(userID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], cl)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// enqueue never blocks; a client too slow to drain its buffer misses the
// message. send is closed only after unregister, so holding the read lock
// while sending is safe.
func (h *Hub) enqueue(userID string, cl *client, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[userID][cl]; !ok {
		return
	}
	select {
	case cl.send <- msg:
	default:
		log.Printf("⚠️ [Realtime] dropping message for slow client: user=%s", userID)
	}
}

// Publish 특정 사용자의 모든 연결에 변경 알림 전송
func (h *Hub) Publish(userID string, ev service.ChangeEvent) {
	msg, err := json.Marshal(Message{Type: "change", Payload: ev})
	if err != nil {
		log.Printf("⚠️ [Realtime] marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients[userID] {
		select {
		case cl.send <- msg:
		default:
			log.Printf("⚠️ [Realtime] dropping change for slow client: user=%s", userID)
		}
	}
}

// ConnectedUsers 연결된 사용자 수
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

package ws

import (
	"encoding/json"
	"quizfunnel/internal/logger"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans quiz events out to the authors watching that quiz
type Hub struct {
	// quizID -> connections
	conns map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once

	log *logger.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	QuizID   string
	AuthorID string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	QuizID  string
	Message *Message
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(log *logger.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for quizID, set := range h.conns {
				for conn := range set {
					close(conn.Send)
				}
				delete(h.conns, quizID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.QuizID] == nil {
				h.conns[conn.QuizID] = make(map[*Connection]struct{})
			}
			h.conns[conn.QuizID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Info("author connected", "quiz_id", conn.QuizID, "author_id", conn.AuthorID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.QuizID]; ok {
				if _, ok := set[conn]; ok {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.conns, conn.QuizID)
					}
					h.log.Info("author disconnected", "quiz_id", conn.QuizID, "author_id", conn.AuthorID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error("failed to encode ws message", "type", msg.Message.Type, "error", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.QuizID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastToQuiz sends an event to every author watching the quiz
// (implements service.Broadcaster). It never blocks the caller.
func (h *Hub) BroadcastToQuiz(quizID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode ws payload", "type", msgType, "error", err)
		return
	}
	msg := &BroadcastMessage{
		QuizID: quizID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.log.Warn("ws broadcast queue full, dropping event", "quiz_id", quizID, "type", msgType)
	}
}

// ConnectionCount returns how many authors watch the quiz
func (h *Hub) ConnectionCount(quizID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[quizID])
}

// Close stops the hub and closes every connection's send channel
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

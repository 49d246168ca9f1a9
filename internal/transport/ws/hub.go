package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgAdjustmentApplied   MessageType = "adjustment_applied"
	MsgEmergencyTriggered  MessageType = "emergency_triggered"
	MsgTransitionValidated MessageType = "transition_validated"
	MsgFlowPhaseChanged    MessageType = "flow_phase_changed"
	MsgError               MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections. Observers receive every event; player
// connections only receive events for their own player.
type Hub struct {
	observers   map[*Connection]bool
	playerConns map[string]map[*Connection]bool // playerID -> conns

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents a WebSocket connection
type Connection struct {
	PlayerID   string // Empty for observer connections
	IsObserver bool
	Send       chan []byte
	Hub        *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	ToObservers bool
	ToPlayer    string
	Message     *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		observers:   make(map[*Connection]bool),
		playerConns: make(map[string]map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.IsObserver {
				h.observers[conn] = true
				log.Printf("Observer connected")
			} else {
				if h.playerConns[conn.PlayerID] == nil {
					h.playerConns[conn.PlayerID] = make(map[*Connection]bool)
				}
				h.playerConns[conn.PlayerID][conn] = true
				log.Printf("Player %s connected", conn.PlayerID)
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conn.IsObserver {
				if h.observers[conn] {
					delete(h.observers, conn)
					close(conn.Send)
					log.Printf("Observer disconnected")
				}
			} else {
				if conns, ok := h.playerConns[conn.PlayerID]; ok && conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.playerConns, conn.PlayerID)
					}
					log.Printf("Player %s disconnected", conn.PlayerID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if msg.ToObservers {
				for conn := range h.observers {
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			} else if msg.ToPlayer != "" {
				for conn := range h.playerConns[msg.ToPlayer] {
					select {
					case conn.Send <- data:
					default:
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToObservers sends a message to every observer (implements service.Broadcaster)
func (h *Hub) BroadcastToObservers(msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		ToObservers: true,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

// BroadcastToPlayer sends a message to a specific player's connections (implements service.Broadcaster)
func (h *Hub) BroadcastToPlayer(playerID string, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		ToPlayer: playerID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
}

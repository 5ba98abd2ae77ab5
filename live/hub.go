package live

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/office/restobook/utils"
)

// Event types
const (
	EventRunningOrders   = "running_orders"
	EventCompletedOrders = "completed_orders"
	EventMenuUpdate      = "menu_update"
	EventExpenseUpdate   = "expense_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds all connected dashboard clients and fans snapshots out to
// them. Every event carries the full current snapshot, so a client that
// joins late only needs the next broadcast to be in sync.
type Hub struct {
	clients map[*websocket.Conn]struct{}
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// RegisterClient adds the connection to the set.
func (h *Hub) RegisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = struct{}{}
}

// UnregisterClient releases the connection.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Broadcast sends the message to every connected client. A client that
// fails the write is dropped from the set.
func (h *Hub) Broadcast(msg Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("cannot marshal %s broadcast: %v", msg.Event, err)
		return
	}

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("dropping client after failed write: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

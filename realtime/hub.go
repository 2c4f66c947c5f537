package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/daikochiya/teashop-app/utils"
)

// Websocket event names.
const (
	WSOrderInsert = "order_insert"
	WSOrderUpdate = "order_update"
	WSOrderDelete = "order_delete"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds the connected websocket clients per shop and broadcasts feed
// events to them. It implements Sink.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]string // shopID -> conn -> role
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]string)}
}

// Register adds a connection to a shop's client set.
func (h *Hub) Register(shopID string, conn *websocket.Conn, role string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[shopID] == nil {
		h.clients[shopID] = make(map[*websocket.Conn]string)
	}
	h.clients[shopID][conn] = role
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(shopID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns := h.clients[shopID]; conns != nil {
		delete(conns, conn)
	}
	conn.Close()
}

// Deliver broadcasts a feed event to every client of the shop.
func (h *Hub) Deliver(shopID string, ev Event) {
	var msg Message
	switch ev.Type {
	case EventInsert:
		msg = Message{Event: WSOrderInsert, Data: ev.New}
	case EventUpdate:
		msg = Message{Event: WSOrderUpdate, Data: ev.New}
	case EventDelete:
		msg = Message{Event: WSOrderDelete, Data: ev.Old}
	default:
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("marshaling ws message failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients[shopID] {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.Printf("ws write failed, dropping client: %v", err)
			delete(h.clients[shopID], conn)
			conn.Close()
		}
	}
}

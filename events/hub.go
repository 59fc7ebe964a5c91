package events

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Event types pushed to connected pages
const (
	EventSessionExpired  = "session_expired"
	EventHappyHourUpdate = "happy_hour_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected page, keyed by the tenant it is browsing.
// Broadcasts only reach connections of the matching tenant.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> tenant code
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient -> adds a connection scoped to one tenant
func RegisterClient(conn *websocket.Conn, tenantCode string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = tenantCode
}

// UnregisterClient -> releases a connection
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastSessionExpired tells the tenant's pages that a binding ran out of
// its TTL and a re-scan is required.
func BroadcastSessionExpired(tenantCode, identityKey string) {
	broadcast(tenantCode, Message{
		Event: EventSessionExpired,
		Data: map[string]interface{}{
			"identity_key": identityKey,
			"message":      "Your table session has expired. Please scan the QR code again.",
		},
	})
}

// BroadcastHappyHourUpdate pushes a window flip to the tenant's pages.
func BroadcastHappyHourUpdate(tenantCode string, active bool, windowLabel string) {
	broadcast(tenantCode, Message{
		Event: EventHappyHourUpdate,
		Data: map[string]interface{}{
			"active": active,
			"window": windowLabel,
		},
	})
}

func broadcast(tenantCode string, msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshalling event message: %v", err)
		return
	}

	for conn, tenant := range hub.clients {
		if tenant != tenantCode {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error broadcasting to client: %v", err)
			conn.Close()
			delete(hub.clients, conn)
		}
	}
}

// Broadcaster adapts the package-level broadcast functions to the monitor's
// interface.
type Broadcaster struct{}

func (Broadcaster) SessionExpired(tenantCode, identityKey string) {
	BroadcastSessionExpired(tenantCode, identityKey)
}

func (Broadcaster) HappyHourUpdate(tenantCode string, active bool, windowLabel string) {
	BroadcastHappyHourUpdate(tenantCode, active, windowLabel)
}

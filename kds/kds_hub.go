package kds

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// audience maps an event type to the staff roles whose screens show it.
var audience = map[string][]string{
	services.EventSessionStarted: {models.RoleAdmin, models.RoleCashier, models.RoleStaff},
	services.EventSessionUpdated: {models.RoleAdmin, models.RoleCashier, models.RoleStaff},
	services.EventSessionEnded:   {models.RoleAdmin, models.RoleCashier, models.RoleStaff, models.RoleCleaner},
	services.EventSessionSettled: {models.RoleAdmin, models.RoleCashier},
	services.EventSessionWarning: {models.RoleAdmin, models.RoleCashier, models.RoleStaff},
	services.EventTableUpdated:   {models.RoleAdmin, models.RoleStaff, models.RoleCleaner},
	services.EventOrderPlaced:    {models.RoleAdmin, models.RoleChef, models.RoleStaff},
	services.EventOrderUpdated:   {models.RoleAdmin, models.RoleChef, models.RoleStaff},
}

// Hub holds the connected staff screens keyed by connection.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

// RegisterClient adds a connection for a role.
func (h *Hub) RegisterClient(conn *websocket.Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
}

// UnregisterClient removes and closes a connection.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// ClientCount returns the number of connected screens.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Notify implements services.Notifier by pushing the event to every screen
// whose role is in the event's audience.
func (h *Hub) Notify(ctx context.Context, e services.Event) error {
	roles, ok := audience[e.Type]
	if !ok {
		return nil
	}
	return h.broadcast(Message{Event: e.Type, Data: e}, roles)
}

// broadcast writes msg to the matching clients. Failed connections are
// dropped.
func (h *Hub) broadcast(msg Message, roles []string) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", msg.Event, err)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, role := range h.clients {
		if !contains(roles, role) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to %s client: %v", msg.Event, role, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

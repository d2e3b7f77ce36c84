package kds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/services"
)

func connect(t *testing.T, hub *Hub, role string) *websocket.Conn {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.RegisterClient(conn, role)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, time.Second, 10*time.Millisecond)
}

func TestNotifyRoutesByRole(t *testing.T) {
	hub := NewHub()
	cashier := connect(t, hub, models.RoleCashier)
	chef := connect(t, hub, models.RoleChef)
	waitForClients(t, hub, 2)

	err := hub.Notify(context.Background(), services.Event{
		Type:      services.EventSessionSettled,
		SessionID: "s-1",
		TableID:   3,
	})
	require.NoError(t, err)

	cashier.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := cashier.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string         `json:"event"`
		Data  services.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, services.EventSessionSettled, msg.Event)
	assert.Equal(t, "s-1", msg.Data.SessionID)
	assert.Equal(t, uint(3), msg.Data.TableID)

	// Chefs do not see settlements
	chef.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = chef.ReadMessage()
	assert.Error(t, err)
}

func TestNotifyIgnoresUnknownEvents(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Notify(context.Background(), services.Event{Type: "something.else"}))
}

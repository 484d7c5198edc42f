package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastsToConnectedClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", hub.Handler)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	sent := Notification{Audience: AudiencePlatform, OrderID: "o-1", Kind: "order_created", Message: "new order"}
	require.NoError(t, hub.Notify(context.Background(), sent))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Notification
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "o-1", got.OrderID)
	assert.Equal(t, "order_created", got.Kind)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_StalledClientDoesNotBlockNotify(t *testing.T) {
	hub := NewHub()
	stalled := &client{send: make(chan []byte)}
	hub.clients[stalled] = struct{}{}

	done := make(chan error, 1)
	go func() { done <- hub.Notify(context.Background(), Notification{OrderID: "o-1", Kind: "order_created"}) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Notify waited on a client that never reads")
	}
	assert.Zero(t, hub.Clients())
	_, open := <-stalled.send
	assert.False(t, open, "a dropped client's queue is closed")
}

func TestHub_NotifyWithoutClients(t *testing.T) {
	assert.NoError(t, NewHub().Notify(context.Background(), Notification{Kind: "noop"}))
}

type failing struct{ err error }

func (f failing) Notify(context.Context, Notification) error { return f.err }

func TestMulti_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	m := Multi{Discard{}, failing{boom}, Log{}}
	err := m.Notify(context.Background(), Notification{Kind: "x"})
	assert.ErrorIs(t, err, boom)
}

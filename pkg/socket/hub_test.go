package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/types"
)

func TestHubDeliversToUser(t *testing.T) {
	hub := NewHub(nil)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(r.URL.Query().Get("user"), conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=u1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Online("u1") == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), types.Event{Type: types.EVENT_NOTIFICATION, UserID: "u2", Payload: "not for you"})
	hub.Publish(context.Background(), types.Event{Type: types.EVENT_SESSIONS_CHANGED, UserID: "u1", Payload: map[string]int{"count": 1}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type    string         `json:"type"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, string(types.EVENT_SESSIONS_CHANGED), got.Type)
	assert.Equal(t, 1, got.Payload["count"])

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Online("u1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishWithoutListeners(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish(context.Background(), types.Event{Type: types.EVENT_NOTIFICATION, UserID: "nobody"})
	assert.Equal(t, 0, hub.Online("nobody"))
}

func TestRegisterRacingLastUnregister(t *testing.T) {
	hub := NewHub(nil)
	newClient := func() *Client {
		return &Client{hub: hub, userID: "u1", send: make(chan []byte, 1)}
	}

	for i := 0; i < 200; i++ {
		leaving := newClient()
		hub.register(leaving)
		joining := newClient()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.unregister(leaving)
		}()
		go func() {
			defer wg.Done()
			hub.register(joining)
		}()
		wg.Wait()

		require.Equal(t, 1, hub.Online("u1"))
		hub.deliver("u1", []byte("ping"))
		select {
		case msg := <-joining.send:
			assert.Equal(t, "ping", string(msg))
		default:
			t.Fatalf("iteration %d: joined client missed the event", i)
		}
		hub.unregister(joining)
		require.Equal(t, 0, hub.Online("u1"))
	}
}

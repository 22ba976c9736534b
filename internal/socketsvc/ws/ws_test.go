package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistry(t *testing.T) {
	registry := NewWs()

	registry.StoreConnection("sock-1", nil)

	_, ok := registry.GetConnection("sock-1")
	assert.True(t, ok)
	_, ok = registry.GetConnection("sock-2")
	assert.False(t, ok)
	assert.Len(t, registry.AllConnections(), 1)

	registry.HandleDisconnect("sock-1")
	_, ok = registry.GetConnection("sock-1")
	assert.False(t, ok)
	assert.Empty(t, registry.AllConnections())
}

// Gorilla permits a single writer per connection and panics on overlap, so
// Send must serialize writers: the broadcast path, the response path and the
// read loop's error reply all land on the same client.
func TestClientSerializesConcurrentWrites(t *testing.T) {
	registry := NewWs()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	clientCh := make(chan *Client, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		clientCh <- registry.StoreConnection("sock-1", conn)
	}))
	defer srv.Close()

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer peer.Close()

	client := <-clientCh

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				assert.NoError(t, client.Send(map[string]string{"type": "change-event"}))
			}
		}()
	}

	for received := 0; received < writers*perWriter; received++ {
		var msg map[string]string
		require.NoError(t, peer.ReadJSON(&msg))
		assert.Equal(t, "change-event", msg["type"])
	}
	wg.Wait()
}

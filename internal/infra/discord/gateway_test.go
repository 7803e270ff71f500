package discord

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
)

// fakeGateway plays the server side of one session
func fakeGateway(t *testing.T, frames []string, identified chan<- identifyData) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(map[string]interface{}{"op": opHello, "d": map[string]int{"heartbeat_interval": 45000}})

		var p payload
		if err := conn.ReadJSON(&p); err != nil {
			return
		}
		var id identifyData
		_ = json.Unmarshal(p.D, &id)
		identified <- id

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		// Hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestGateway_DeliversMessagesAndChannelUpdates(t *testing.T) {
	frames := []string{
		`{"op":0,"s":1,"t":"READY","d":{"user":{"id":"self","username":"me"}}}`,
		`{"op":0,"s":2,"t":"MESSAGE_CREATE","d":{"id":"m1","channel_id":"c1","content":"hello <@self>","author":{"id":"u1","username":"alice"},"mentions":[{"id":"self"}],"timestamp":"2024-01-01T00:00:00Z"}}`,
		`{"op":0,"s":3,"t":"CHANNEL_UPDATE","d":{"id":"c1","rate_limit_per_user":30}}`,
	}
	identified := make(chan identifyData, 1)
	srv := fakeGateway(t, frames, identified)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	g := NewGateway(wsURL, "tok", nil)

	messages := make(chan *Message, 1)
	channels := make(chan *Channel, 1)
	g.OnMessage(func(m *Message) { messages <- m })
	g.OnChannelUpdate(func(c *Channel) { channels <- c })

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- g.Run(ctx) }()

	select {
	case id := <-identified:
		assert.Equal(t, "tok", id.Token)
		assert.Equal(t, defaultIntents, id.Intents)
	case <-time.After(5 * time.Second):
		t.Fatal("identify not received")
	}

	select {
	case m := <-messages:
		assert.Equal(t, "m1", m.ID)
		assert.Equal(t, "c1", m.ChannelID)
		assert.Equal(t, "alice", m.Author.DisplayName())
		assert.True(t, m.MentionsUser("self"))
		assert.False(t, m.MentionsUser(""))
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case c := <-channels:
		assert.Equal(t, 30, c.RateLimitPerUser)
	case <-time.After(5 * time.Second):
		t.Fatal("channel update not delivered")
	}

	assert.Equal(t, "self", g.SelfID())
	assert.Equal(t, int64(3), g.seq.Load())

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestGateway_RunWithoutToken(t *testing.T) {
	g := NewGateway("", "", nil)
	assert.Error(t, g.Run(context.Background()))
}

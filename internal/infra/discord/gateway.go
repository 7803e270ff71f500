package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DefaultGatewayURL is the gateway endpoint used when none is configured
const DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

// Intents: GUILD_MESSAGES | DIRECT_MESSAGES | MESSAGE_CONTENT
const defaultIntents = 1<<9 | 1<<12 | 1<<15

const (
	writeWait       = 10 * time.Second
	maxMessageSize  = 1 << 20
	minReconnect    = time.Second
	maxReconnect    = time.Minute
	handshakeWait   = 30 * time.Second
	stableAfterTime = time.Minute
)

var errReconnectRequested = errors.New("gateway requested reconnect")

// User is a message author or mention target
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Bot        bool   `json:"bot"`
}

// DisplayName returns the global name if set, else the username
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Message is a MESSAGE_CREATE payload
type Message struct {
	ID              string `json:"id"`
	ChannelID       string `json:"channel_id"`
	Content         string `json:"content"`
	Author          User   `json:"author"`
	Mentions        []User `json:"mentions"`
	MentionEveryone bool   `json:"mention_everyone"`
	Timestamp       string `json:"timestamp"`
}

// MentionsUser reports whether userID is among the mentioned users
func (m *Message) MentionsUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range m.Mentions {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// Channel is a CHANNEL_UPDATE payload
type Channel struct {
	ID               string `json:"id"`
	RateLimitPerUser int    `json:"rate_limit_per_user"`
}

// payload is a gateway frame
type payload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type readyData struct {
	User User `json:"user"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// Gateway is a websocket client that surfaces new messages and channel updates
type Gateway struct {
	url     string
	token   string
	intents int
	dialer  *websocket.Dialer
	logger  *zap.Logger

	mu              sync.RWMutex
	selfID          string
	onMessage       func(*Message)
	onChannelUpdate func(*Channel)

	seq     atomic.Int64
	writeMu sync.Mutex
}

// NewGateway creates a gateway client
func NewGateway(gatewayURL, token string, logger *zap.Logger) *Gateway {
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		url:     gatewayURL,
		token:   token,
		intents: defaultIntents,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeWait,
		},
		logger: logger.Named("gateway"),
	}
	g.seq.Store(-1)
	return g
}

// OnMessage sets the MESSAGE_CREATE handler
func (g *Gateway) OnMessage(handler func(*Message)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onMessage = handler
}

// OnChannelUpdate sets the CHANNEL_UPDATE handler
func (g *Gateway) OnChannelUpdate(handler func(*Channel)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onChannelUpdate = handler
}

// SelfID returns the logged-in user id, empty before READY
func (g *Gateway) SelfID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.selfID
}

// Run connects and keeps reconnecting with capped backoff until ctx is cancelled
func (g *Gateway) Run(ctx context.Context) error {
	if g.token == "" {
		return fmt.Errorf("discord token not set")
	}

	backoff := minReconnect
	for {
		started := time.Now()
		err := g.runSession(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if time.Since(started) > stableAfterTime {
			backoff = minReconnect
		}
		g.logger.Warn("gateway session ended, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnect {
			backoff = maxReconnect
		}
	}
}

// runSession runs one connection from Hello until it drops
func (g *Gateway) runSession(ctx context.Context) error {
	conn, _, err := g.dialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	done := make(chan struct{})
	defer close(done)

	// Unblock ReadJSON when ctx is cancelled
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	var hello payload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var hd helloData
	if err := json.Unmarshal(hello.D, &hd); err != nil || hd.HeartbeatInterval <= 0 {
		return fmt.Errorf("invalid hello payload: %s", string(hello.D))
	}

	if err := g.identify(conn); err != nil {
		return err
	}

	go g.heartbeatLoop(conn, time.Duration(hd.HeartbeatInterval)*time.Millisecond, done)

	for {
		var p payload
		if err := conn.ReadJSON(&p); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if p.S != nil {
			g.seq.Store(*p.S)
		}

		switch p.Op {
		case opDispatch:
			g.dispatch(p.T, p.D)
		case opHeartbeat:
			if err := g.sendHeartbeat(conn); err != nil {
				return err
			}
		case opReconnect:
			return errReconnectRequested
		case opInvalidSession:
			g.seq.Store(-1)
			return fmt.Errorf("invalid session")
		case opHeartbeatAck:
		default:
			g.logger.Debug("ignoring gateway op", zap.Int("op", p.Op))
		}
	}
}

func (g *Gateway) identify(conn *websocket.Conn) error {
	data, err := json.Marshal(identifyData{
		Token:   g.token,
		Intents: g.intents,
		Properties: identifyProperties{
			OS:      runtime.GOOS,
			Browser: "discord-autoreply",
			Device:  "discord-autoreply",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal identify: %w", err)
	}
	return g.writeJSON(conn, payload{Op: opIdentify, D: data})
}

func (g *Gateway) heartbeatLoop(conn *websocket.Conn, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := g.sendHeartbeat(conn); err != nil {
				g.logger.Warn("heartbeat failed", zap.Error(err))
				conn.Close()
				return
			}
		}
	}
}

func (g *Gateway) sendHeartbeat(conn *websocket.Conn) error {
	var d json.RawMessage = []byte("null")
	if seq := g.seq.Load(); seq >= 0 {
		d = []byte(fmt.Sprintf("%d", seq))
	}
	return g.writeJSON(conn, payload{Op: opHeartbeat, D: d})
}

func (g *Gateway) writeJSON(conn *websocket.Conn, p payload) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteJSON(p); err != nil {
		return fmt.Errorf("write op %d: %w", p.Op, err)
	}
	return nil
}

// dispatch routes one op 0 event. Handlers run on the read goroutine and must return quickly.
func (g *Gateway) dispatch(eventType string, data json.RawMessage) {
	switch eventType {
	case "READY":
		var ready readyData
		if err := json.Unmarshal(data, &ready); err != nil {
			g.logger.Warn("bad READY payload", zap.Error(err))
			return
		}
		g.mu.Lock()
		g.selfID = ready.User.ID
		g.mu.Unlock()
		g.logger.Info("gateway ready",
			zap.String("user_id", ready.User.ID),
			zap.String("username", ready.User.Username))

	case "MESSAGE_CREATE":
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			g.logger.Warn("bad MESSAGE_CREATE payload", zap.Error(err))
			return
		}
		g.mu.RLock()
		handler := g.onMessage
		g.mu.RUnlock()
		if handler != nil {
			handler(&msg)
		}

	case "CHANNEL_UPDATE":
		var ch Channel
		if err := json.Unmarshal(data, &ch); err != nil {
			g.logger.Warn("bad CHANNEL_UPDATE payload", zap.Error(err))
			return
		}
		g.mu.RLock()
		handler := g.onChannelUpdate
		g.mu.RUnlock()
		if handler != nil {
			handler(&ch)
		}
	}
}

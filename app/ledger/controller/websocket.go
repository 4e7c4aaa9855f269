package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vamo-hq/ledgerx/pkg/redis"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: In production, restrict to specific origins
		return true
	},
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "activity", "ping", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

// HandleWebSocket upgrades the connection and streams a project's activity
// events as they are published to Redis.
//
// Server sends:
// - {"type": "activity", "payload": {...activity event...}}
// - {"type": "ping", "payload": {"timestamp": 1234567890}}
// - {"type": "error", "payload": {"message": "..."}}
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if c.App.RedisClient == nil {
		http.Error(w, "Real-time events not available (Redis disabled)", http.StatusServiceUnavailable)
		return
	}

	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		http.Error(w, "project_id query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func(conn *websocket.Conn) {
		if closeErr := conn.Close(); closeErr != nil {
			c.App.Logger.Error("Failed to close WebSocket connection", zap.Error(closeErr))
		}
	}(conn)

	c.App.Logger.Info("WebSocket client connected",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("project_id", projectID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan ServerMessage, 256)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in Redis subscriber goroutine",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())))
				cancel()
			}
		}()
		c.forwardActivity(ctx, projectID, send)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in message writer goroutine",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())))
				cancel()
			}
		}()
		c.writeMessages(conn, send)
	}()

	// Block reading client frames so we notice the close.
	c.readUntilClose(ctx, conn, cancel)

	close(send)
	wg.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// forwardActivity bridges the project's Redis Pub/Sub channel onto the send
// channel, interleaving keep-alive pings.
func (c *Controller) forwardActivity(ctx context.Context, projectID string, send chan<- ServerMessage) {
	pubsub := c.App.RedisClient.Subscribe(ctx, redis.ActivityChannel(projectID))
	defer func() { _ = pubsub.Close() }()

	c.replayRecentActivity(ctx, projectID, send)

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			select {
			case send <- ServerMessage{Type: "ping", Payload: map[string]int64{"timestamp": time.Now().Unix()}}:
			default:
				// slow client; drop the ping
			}
		case msg, ok := <-ch:
			if !ok {
				select {
				case send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "activity stream closed"}}:
				default:
				}
				return
			}
			var payload json.RawMessage = []byte(msg.Payload)
			select {
			case send <- ServerMessage{Type: "activity", Payload: payload}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// replayRecentActivity sends the newest stream entries, oldest first, so a
// fresh client starts with context instead of an empty feed.
func (c *Controller) replayRecentActivity(ctx context.Context, projectID string, send chan<- ServerMessage) {
	const replayCount = 25

	messages, err := c.App.RedisClient.XRecent(ctx, redis.ActivityStream(projectID), replayCount)
	if err != nil {
		c.App.Logger.Debug("Activity replay unavailable", zap.Error(err))
		return
	}
	for i := len(messages) - 1; i >= 0; i-- {
		raw, ok := messages[i].Values["event"].(string)
		if !ok {
			continue
		}
		select {
		case send <- ServerMessage{Type: "activity", Payload: json.RawMessage(raw)}:
		case <-ctx.Done():
			return
		}
	}
}

// writeMessages drains the send channel onto the websocket connection.
func (c *Controller) writeMessages(conn *websocket.Conn, send <-chan ServerMessage) {
	for msg := range send {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			c.App.Logger.Debug("WebSocket write failed", zap.Error(err))
			return
		}
	}
}

// readUntilClose consumes client frames until the connection or context ends.
func (c *Controller) readUntilClose(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

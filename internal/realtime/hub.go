// Package realtime broadcasts session lifecycle events to connected kiosk
// displays over WebSocket.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// OriginServer tags events emitted by this server. The hub refuses to
// re-broadcast a client-forwarded event that still carries the server
// origin, which breaks the echo loop between displays that mirror
// recording-completed back to the bus.
const OriginServer = "server"

// Events understood on the wire.
const (
	EventKioskRegister      = "kiosk-register"
	EventStartRecording     = "start-recording"
	EventRecordingCompleted = "recording-completed"
)

// Message is the WebSocket envelope.
type Message struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	Origin string          `json:"origin,omitempty"`
}

// RedisPublisher publishes events for other server instances.
type RedisPublisher interface {
	PublishKioskEvent(event string, payload []byte) error
}

// RedisSubscriber receives events published by other instances.
type RedisSubscriber interface {
	SubscribeKioskEvents(handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains the set of connected display clients and fans events out to
// all of them. Delivery is best effort: a client with a full send buffer
// misses the message.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	redisPub RedisPublisher
	cancel   func()
	logger   *zap.Logger
}

// NewHub creates a hub. redisPub and redisSub are optional; when present,
// broadcasts are mirrored to other instances through Redis pub/sub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:  make(map[string]*Client),
		redisPub: redisPub,
		logger:   logger,
	}
	if redisSub != nil {
		cancel, err := redisSub.SubscribeKioskEvents(func(event string, payload []byte) {
			h.broadcastLocal(Message{Event: event, Data: payload, Origin: OriginServer})
		})
		if err != nil {
			// Without the subscription our own publishes would never come
			// back, so drop the publisher too and broadcast locally.
			logger.Warn("redis subscribe failed, single-instance broadcast only", zap.Error(err))
			h.redisPub = nil
		} else {
			h.cancel = cancel
		}
	}
	return h
}

// Register adds a connected client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Info("client connected", zap.String("client_id", c.ID))
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Info("client disconnected",
		zap.String("client_id", c.ID),
		zap.String("kiosk_id", c.KioskID()))
}

// Broadcast sends a server-originated event to every connected client.
// With Redis configured it publishes only; the subscription callback then
// performs the local broadcast once per instance, ours included, so local
// clients never see the event twice.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal broadcast payload", zap.String("event", event), zap.Error(err))
		return
	}
	if h.redisPub != nil {
		if err := h.redisPub.PublishKioskEvent(event, data); err == nil {
			return
		} else {
			h.logger.Warn("redis publish failed, falling back to local broadcast",
				zap.String("event", event), zap.Error(err))
		}
	}
	h.broadcastLocal(Message{Event: event, Data: data, Origin: OriginServer})
}

// Forward re-broadcasts a client-submitted event. Events that still carry
// the server origin are echoes of our own broadcast and are dropped.
func (h *Hub) Forward(from *Client, msg Message) {
	if msg.Origin == OriginServer {
		h.logger.Debug("dropping echoed event",
			zap.String("event", msg.Event),
			zap.String("client_id", from.ID))
		return
	}
	msg.Origin = from.ID
	h.broadcastLocal(msg)
}

func (h *Hub) broadcastLocal(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the Redis subscription, if any.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
}

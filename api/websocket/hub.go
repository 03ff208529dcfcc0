package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/huandu/skiplist"

	tandatypes "github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// Hub maintains the set of active clients and fans pool lifecycle
// events out to channel subscribers
type Hub struct {
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Inbound events from the chain listener
	events chan *PoolEventMessage

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Replay buffer: recent events ordered by sequence number, so a
	// reconnecting client can catch up from its last seen sequence
	// instead of re-reading the whole registry over REST.
	replay    *skiplist.SkipList // seq (uint64) -> *PoolEventMessage
	replaySeq uint64
	replayMu  sync.Mutex

	mu     sync.RWMutex
	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	ReplayBuffer     int // Number of events kept for replay
	MaxSubscriptions int
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		ReplayBuffer:     1000,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		events:      make(chan *PoolEventMessage, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		replay:      skiplist.New(skiplist.Uint64),
		config:      config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case event := <-h.events:
			h.dispatchEvent(event)
		}
	}
}

// PublishEvent enqueues a pool lifecycle event for fan-out. Callers
// must not block; events are dropped when the hub is saturated.
func (h *Hub) PublishEvent(event tandatypes.PoolEvent) {
	msg := &PoolEventMessage{
		Seq:       h.nextSeq(),
		Type:      event.Type,
		PoolID:    event.PoolID,
		Address:   event.Address,
		Amount:    event.Amount,
		Cycle:     event.Cycle,
		Timestamp: event.Timestamp,
	}
	h.bufferEvent(msg)

	select {
	case h.events <- msg:
	default:
	}
}

func (h *Hub) nextSeq() uint64 {
	h.replayMu.Lock()
	defer h.replayMu.Unlock()
	h.replaySeq++
	return h.replaySeq
}

// bufferEvent stores an event in the replay skiplist, evicting the
// oldest entries past the configured window.
func (h *Hub) bufferEvent(msg *PoolEventMessage) {
	h.replayMu.Lock()
	defer h.replayMu.Unlock()

	h.replay.Set(msg.Seq, msg)
	for h.replay.Len() > h.config.ReplayBuffer {
		front := h.replay.Front()
		if front == nil {
			break
		}
		h.replay.Remove(front.Key())
	}
}

// ReplaySince returns buffered events with sequence greater than since,
// oldest first.
func (h *Hub) ReplaySince(since uint64) []*PoolEventMessage {
	h.replayMu.Lock()
	defer h.replayMu.Unlock()

	var out []*PoolEventMessage
	for el := h.replay.Find(since + 1); el != nil; el = el.Next() {
		out = append(out, el.Value.(*PoolEventMessage))
	}
	return out
}

// dispatchEvent routes one event to the global, per-pool and per-member
// channels.
func (h *Hub) dispatchEvent(event *PoolEventMessage) {
	h.broadcastToChannel(ChannelPools, &WSMessage{
		Type:    "pool_event",
		Channel: ChannelPools,
		Data:    event,
	})
	poolChannel := ChannelPoolPrefix + event.PoolID
	h.broadcastToChannel(poolChannel, &WSMessage{
		Type:    "pool_event",
		Channel: poolChannel,
		Data:    event,
	})
	if event.Address != "" {
		memberChannel := ChannelMemberPrefix + event.Address
		h.broadcastToChannel(memberChannel, &WSMessage{
			Type:    "pool_event",
			Channel: memberChannel,
			Data:    event,
		})
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		close(client.send)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true

	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// broadcastToChannel sends a message to all clients subscribed to a
// channel.
func (h *Hub) broadcastToChannel(channel string, message *WSMessage) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Copy so the lock is not held during sends
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}
}

// ============ Channels and message types ============

// Channel names. ChannelPools carries every pool lifecycle event;
// pool:<id> scopes to one pool; member:<addr> is private to one member.
const (
	ChannelPools        = "pools"
	ChannelPoolPrefix   = "pool:"
	ChannelMemberPrefix = "member:"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PoolEventMessage is a pool lifecycle event as delivered to clients
type PoolEventMessage struct {
	Seq       uint64 `json:"seq"`
	Type      string `json:"type"`
	PoolID    string `json:"pool_id"`
	Address   string `json:"address,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Cycle     uint32 `json:"cycle,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = generateID()
	}

	memberAddr := r.URL.Query().Get("address")
	ip := getClientIPFromRequest(r)

	client := NewClient(h, conn, clientID, memberAddr, ip)

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Helper function to get client IP
func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

func generateID() string {
	return time.Now().Format("20060102150405.000000000")
}

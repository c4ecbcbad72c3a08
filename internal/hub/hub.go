package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"trailmate/backend/internal/events"
)

// FeedTopic receives every activity event regardless of activity id.
const FeedTopic = "activities"

const channelPrefix = "trailmate:hub:"

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client is a single SSE connection. The handler drains it; the hub closes it on Unsubscribe.
type Client chan []byte

// Hub fans events out to the clients subscribed to a topic. With a redis
// client attached, broadcasts travel through redis pub/sub so every server
// instance delivers them to its own clients.
type Hub struct {
	topics map[string]map[Client]bool
	mu     sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewHub creates a Hub that only delivers to local clients.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[Client]bool),
	}
}

// NewRedisHub creates a Hub relayed through redis. It returns once the
// subscription is confirmed so no broadcast is missed.
func NewRedisHub(ctx context.Context, client *redis.Client) (*Hub, error) {
	h := NewHub()
	pubsub := client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe to hub relay: %w", err)
	}
	h.redis = client
	h.pubsub = pubsub
	h.done = make(chan struct{})
	go h.relay()
	return h, nil
}

// Subscribe adds a client to a topic.
func (h *Hub) Subscribe(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[Client]bool)
	}
	h.topics[topic][client] = true
}

// Unsubscribe removes a client from a topic and closes it.
func (h *Hub) Unsubscribe(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.topics[topic]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client)
			if len(clients) == 0 {
				delete(h.topics, topic)
			}
		}
	}
}

// Broadcast sends an event to all clients of a topic.
func (h *Hub) Broadcast(ctx context.Context, topic string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: encode %s event: %v", event.Type, err)
		return
	}

	if h.redis != nil {
		err := h.redis.Publish(ctx, channelPrefix+topic, payload).Err()
		if err == nil {
			return
		}
		log.Printf("hub: redis publish error, delivering locally: %v", err)
	}
	h.deliver(topic, payload)
}

// Notify broadcasts an activity event on its own topic and on the feed.
func (h *Hub) Notify(ctx context.Context, ev events.Event) {
	msg := Event{Type: string(ev.Type), Payload: ev}
	h.Broadcast(ctx, ev.ActivityID, msg)
	h.Broadcast(ctx, FeedTopic, msg)
}

// Close stops the redis relay, if any.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	err := h.pubsub.Close()
	<-h.done
	return err
}

func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.topics[topic] {
		// Slow clients drop messages rather than stall the hub.
		select {
		case client <- payload:
		default:
		}
	}
}

func (h *Hub) relay() {
	defer close(h.done)
	for msg := range h.pubsub.Channel() {
		topic, ok := strings.CutPrefix(msg.Channel, channelPrefix)
		if !ok || topic == "" {
			continue
		}
		h.deliver(topic, []byte(msg.Payload))
	}
}

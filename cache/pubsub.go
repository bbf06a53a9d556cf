package cache

import (
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// BookTopic, TradesTopic, OrdersTopic build the three subscription
// topic strings the read surface exposes.
func BookTopic(market [32]byte) string   { return "book:" + base64.RawURLEncoding.EncodeToString(market[:]) }
func TradesTopic(market [32]byte) string { return "trades:" + base64.RawURLEncoding.EncodeToString(market[:]) }
func OrdersTopic(owner [32]byte) string  { return "orders:" + base64.RawURLEncoding.EncodeToString(owner[:]) }

// subscriber is one registered receiver of a topic's payloads.
type subscriber struct {
	id string
	ch chan interface{}
}

// PubSub is a thread-safe topic fan-out: Publish delivers a
// JSON-serializable payload to every subscriber of a topic via a
// best-effort, non-blocking send (a slow subscriber drops a message
// rather than stalling the publisher).
type PubSub struct {
	mu    sync.RWMutex
	topic map[string]map[string]*subscriber
	stats *Cache // optional, for publish counting; may be nil
}

// NewPubSub constructs an empty publisher. statsCache, if non-nil, has
// its publish counter incremented on every successful delivery attempt.
func NewPubSub(statsCache *Cache) *PubSub {
	return &PubSub{topic: make(map[string]map[string]*subscriber), stats: statsCache}
}

// Subscribe registers a new receiver for topic and returns its channel
// plus an unsubscribe function.
func (p *PubSub) Subscribe(topic string, buffer int) (<-chan interface{}, func()) {
	sub := &subscriber{id: uuid.NewString(), ch: make(chan interface{}, buffer)}

	p.mu.Lock()
	subs, ok := p.topic[topic]
	if !ok {
		subs = make(map[string]*subscriber)
		p.topic[topic] = subs
	}
	subs[sub.id] = sub
	p.mu.Unlock()

	unsubscribe := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if subs, ok := p.topic[topic]; ok {
			if s, ok := subs[sub.id]; ok {
				close(s.ch)
				delete(subs, sub.id)
			}
			if len(subs) == 0 {
				delete(p.topic, topic)
			}
		}
	}
	return sub.ch, unsubscribe
}

// Publish delivers payload to every current subscriber of topic.
// Subscribers whose buffer is full are skipped, not blocked on.
func (p *PubSub) Publish(topic string, payload interface{}) {
	p.mu.RLock()
	subs := p.topic[topic]
	list := make([]*subscriber, 0, len(subs))
	for _, s := range subs {
		list = append(list, s)
	}
	p.mu.RUnlock()

	for _, s := range list {
		select {
		case s.ch <- payload:
			if p.stats != nil {
				p.stats.recordPublish()
			}
		default:
		}
	}
}

// SubscriberCount returns the number of live subscribers on a topic.
func (p *PubSub) SubscriberCount(topic string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.topic[topic])
}

// WSBridge forwards one topic's published payloads to a websocket
// connection as JSON text frames, until the subscription is cancelled
// or the write fails.
type WSBridge struct {
	conn  *websocket.Conn
	topic string
}

// NewWSBridge wires a websocket connection to a pub/sub topic and
// starts the forwarding goroutine; call Close to tear it down.
func NewWSBridge(ps *PubSub, topic string, conn *websocket.Conn, buffer int) *WSBridge {
	b := &WSBridge{conn: conn, topic: topic}
	ch, unsubscribe := ps.Subscribe(topic, buffer)
	go func() {
		defer unsubscribe()
		for payload := range ch {
			data, err := json.Marshal(payload)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}()
	return b
}

// Close closes the underlying websocket connection.
func (b *WSBridge) Close() error {
	return b.conn.Close()
}

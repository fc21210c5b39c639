package network

import (
	"sync"
)

const defaultMemoryBuffer = 64

// MemoryPubSub is a process-local transport. Both peers of a channel can
// share one instance in tests or in a single-process demo.
type MemoryPubSub struct {
	mu     sync.RWMutex
	nextID int
	buffer int
	closed bool
	subs   map[string]map[int]chan Message
}

// NewMemoryPubSub returns a transport whose subscriptions buffer buffer
// messages each. Values <= 0 use the default of 64.
func NewMemoryPubSub(buffer int) *MemoryPubSub {
	if buffer <= 0 {
		buffer = defaultMemoryBuffer
	}
	return &MemoryPubSub{
		buffer: buffer,
		subs:   make(map[string]map[int]chan Message),
	}
}

func (m *MemoryPubSub) Publish(topic string, payload []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	for _, ch := range m.subs[topic] {
		msg := Message{Topic: topic, Payload: append([]byte(nil), payload...)}
		select {
		case ch <- msg:
		default:
			// subscriber is full; drop instead of stalling the publisher
		}
	}
	return nil
}

func (m *MemoryPubSub) Subscribe(topic string) (<-chan Message, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, nil, ErrClosed
	}
	if _, ok := m.subs[topic]; !ok {
		m.subs[topic] = make(map[int]chan Message)
	}
	id := m.nextID
	m.nextID++
	ch := make(chan Message, m.buffer)
	m.subs[topic][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.removeLocked(topic, id)
		})
	}
	return ch, cancel, nil
}

// Close closes every open subscription. Publish and Subscribe fail afterwards.
func (m *MemoryPubSub) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for topic, byID := range m.subs {
		for id := range byID {
			m.removeLocked(topic, id)
		}
	}
	return nil
}

func (m *MemoryPubSub) removeLocked(topic string, id int) {
	byID, ok := m.subs[topic]
	if !ok {
		return
	}
	if ch, exists := byID[id]; exists {
		delete(byID, id)
		close(ch)
	}
	if len(byID) == 0 {
		delete(m.subs, topic)
	}
}

package hostapi

import (
	"encoding/json"
	"sync"

	"FitTrack-Bridge/internal/host"
	"FitTrack-Bridge/internal/message"
)

// SSE event names.
const (
	EventData       = "data"
	EventConnection = "connection"
)

const defaultClientBuffer = 32

// Event is one server-sent event.
type Event struct {
	Name string
	Data []byte
}

// Broadcaster is the host.Sink used when the embedding application talks
// HTTP. Every subscriber gets its own buffered channel; a subscriber that
// falls behind loses events instead of stalling the host agent.
type Broadcaster struct {
	buffer int

	mu        sync.Mutex
	subs      map[int]chan Event
	nextID    int
	connected bool
}

var _ host.Sink = (*Broadcaster)(nil)

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Broadcaster{buffer: buffer, subs: map[int]chan Event{}}
}

// OnData implements host.Sink. The payload is the message's wire form.
func (b *Broadcaster) OnData(msg message.Message) {
	data, err := json.Marshal(message.Encode(msg))
	if err != nil {
		return
	}
	b.publish(Event{Name: EventData, Data: data})
}

// OnConnectionChanged implements host.Sink.
func (b *Broadcaster) OnConnectionChanged(connected bool) {
	b.mu.Lock()
	b.connected = connected
	b.mu.Unlock()
	b.publish(connectionEvent(connected))
}

// Subscribe registers a client. The current connection status is queued
// first so new clients start in sync.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	ch <- connectionEvent(b.connected)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
		})
	}
	return ch, cancel
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func connectionEvent(connected bool) Event {
	data, _ := json.Marshal(map[string]bool{"connected": connected})
	return Event{Name: EventConnection, Data: data}
}

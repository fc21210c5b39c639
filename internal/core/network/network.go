package network

import "errors"

// ErrClosed is returned by Publish and Subscribe once a transport is closed.
var ErrClosed = errors.New("transport closed")

// Message is the transport envelope delivered to subscribers.
type Message struct {
	Topic   string
	Payload []byte
}

// PubSub is a minimal broadcast transport. Delivery is at-most-once:
// implementations drop messages for subscribers that cannot keep up rather
// than block publishers.
type PubSub interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

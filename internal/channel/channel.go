// Package channel implements the two-peer message channel the companion and
// host exchange workout messages over. It layers peer liveness (presence
// heartbeats), immediate sends and a deferred-transfer queue on top of a
// network.PubSub transport.
package channel

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrPeerUnreachable is returned by Send while the peer is not reachable.
	ErrPeerUnreachable = errors.New("peer not reachable")
	// ErrNotActive is returned when the channel has not been activated.
	ErrNotActive = errors.New("channel not active")
	// ErrAlreadyActive is returned by Activate on an active channel.
	ErrAlreadyActive = errors.New("channel already active")
)

// Delegate receives channel events. Reachability and activation callbacks
// are serialized; MessageReceived is called in arrival order from a single
// goroutine. Callbacks may call back into the channel.
type Delegate interface {
	ChannelActivated(peerActive bool)
	ChannelDeactivated()
	ReachabilityChanged(reachable bool)
	MessageReceived(payload map[string]any)
}

// Channel is one side of a two-peer link.
type Channel interface {
	Activate(ctx context.Context, d Delegate) error
	Reachable() bool
	// Send delivers payload now, at most once. It fails with
	// ErrPeerUnreachable instead of queueing.
	Send(payload map[string]any) error
	// Transfer queues payload for delivery once the peer is reachable,
	// or delivers it right away if it already is.
	Transfer(payload map[string]any) error
	Deactivate() error
}

// Roles used by the bridge binaries.
const (
	RoleCompanion = "companion"
	RoleHost      = "host"
)

// PeerOf returns the role on the other end of the link.
func PeerOf(role string) string {
	if role == RoleHost {
		return RoleCompanion
	}
	return RoleHost
}

const (
	envelopePresence = "presence"
	envelopeLeave    = "leave"
	envelopeMessage  = "message"
)

// envelope is the transport framing. From is the sender's instance id so a
// channel can ignore its own traffic on shared transports.
type envelope struct {
	ID   string         `json:"id"`
	From string         `json:"from"`
	Kind string         `json:"kind"`
	Body map[string]any `json:"body,omitempty"`
	At   time.Time      `json:"at"`
}

// Package host implements the phone side of the bridge: it routes messages
// from the companion to the embedding application and keeps the connection
// status current.
package host

import (
	"errors"
	"sync"
	"sync/atomic"

	"FitTrack-Bridge/internal/channel"
	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/core/metrics"
	"FitTrack-Bridge/internal/message"
	"FitTrack-Bridge/internal/reachability"
)

// Sink is the embedding application. Calls arrive in the order the
// underlying events happened; implementations should not block.
type Sink interface {
	OnData(msg message.Message)
	OnConnectionChanged(connected bool)
}

// Stats is a diagnostic snapshot of the router.
type Stats struct {
	Received     uint64 `json:"received"`
	Forwarded    uint64 `json:"forwarded"`
	DecodeErrors uint64 `json:"decodeErrors"`
	Ignored      uint64 `json:"ignored"`
	PeerActive   bool   `json:"peerActive"`
	Connected    bool   `json:"connected"`
}

type Option func(*Agent)

// WithStatusForwarding forwards WorkoutStatus messages to the sink in
// addition to LiveData and WorkoutComplete.
func WithStatusForwarding() Option {
	return func(a *Agent) { a.forwardStatus = true }
}

// WithTracker shares a reachability tracker, typically with a relay.
func WithTracker(t *reachability.Tracker) Option {
	return func(a *Agent) { a.tracker = t }
}

// Agent is the host sync agent. It implements channel.Delegate.
type Agent struct {
	sink          Sink
	tracker       *reachability.Tracker
	forwardStatus bool
	log           *logger.Logger

	// connMu orders connection publishes between tracker edges and
	// explicit resyncs.
	connMu sync.Mutex
	// dataMu keeps one forwarding call per message in arrival order.
	dataMu sync.Mutex

	received     atomic.Uint64
	forwarded    atomic.Uint64
	decodeErrors atomic.Uint64
	ignored      atomic.Uint64
	peerActive   atomic.Bool
}

var _ channel.Delegate = (*Agent)(nil)

func NewAgent(sink Sink, log *logger.Logger, opts ...Option) *Agent {
	a := &Agent{
		sink: sink,
		log:  log.Component("host"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tracker == nil {
		a.tracker = reachability.NewTracker()
	}
	a.tracker.Observe(a.publishConnection)
	return a
}

// Tracker returns the reachability tracker the agent feeds.
func (a *Agent) Tracker() *reachability.Tracker {
	return a.tracker
}

// Refresh republishes the current connection status to the sink even when
// it has not changed, so a freshly attached application can resync.
func (a *Agent) Refresh() {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	// Read under connMu so a concurrent transition cannot be overtaken by
	// a stale value.
	a.publishConnectionLocked(a.tracker.IsReachable())
}

func (a *Agent) IsConnected() bool {
	return a.tracker.IsReachable()
}

func (a *Agent) Stats() Stats {
	return Stats{
		Received:     a.received.Load(),
		Forwarded:    a.forwarded.Load(),
		DecodeErrors: a.decodeErrors.Load(),
		Ignored:      a.ignored.Load(),
		PeerActive:   a.peerActive.Load(),
		Connected:    a.tracker.IsReachable(),
	}
}

func (a *Agent) publishConnection(connected bool) {
	a.connMu.Lock()
	defer a.connMu.Unlock()
	a.publishConnectionLocked(connected)
}

func (a *Agent) publishConnectionLocked(connected bool) {
	a.log.Debug().Bool("connected", connected).Msg("connection status")
	a.sink.OnConnectionChanged(connected)
}

// ChannelActivated implements channel.Delegate.
func (a *Agent) ChannelActivated(peerActive bool) {
	a.tracker.OnChannelActivated(peerActive)
}

// ChannelDeactivated implements channel.Delegate.
func (a *Agent) ChannelDeactivated() {
	a.tracker.OnChannelDeactivated()
}

// ReachabilityChanged implements channel.Delegate.
func (a *Agent) ReachabilityChanged(reachable bool) {
	a.tracker.OnReachabilityChanged(reachable)
}

// MessageReceived implements channel.Delegate. Decode failures are counted
// and dropped; they never reach the sink.
func (a *Agent) MessageReceived(payload map[string]any) {
	a.received.Add(1)
	msg, err := message.Decode(payload)
	switch {
	case errors.Is(err, message.ErrUnknownKind):
		a.ignore("unknown_kind")
		a.log.Debug().Err(err).Msg("ignoring message of unknown kind")
		return
	case err != nil:
		a.decodeErrors.Add(1)
		metrics.RecordDecodeError()
		a.log.Warn().Err(err).Msg("dropping malformed message")
		return
	}

	switch msg.Kind {
	case message.KindLiveData, message.KindWorkoutComplete:
		if msg.Kind == message.KindWorkoutComplete {
			a.peerActive.Store(false)
		}
		a.forward(msg)
	case message.KindWorkoutStatus:
		a.peerActive.Store(msg.Active)
		if a.forwardStatus {
			a.forward(msg)
		}
	case message.KindWatchReady:
		a.peerActive.Store(msg.Active)
		a.log.Info().Bool("workoutActive", msg.Active).Msg("companion ready")
		a.Refresh()
	default:
		a.ignore(msg.Kind.String())
	}
}

func (a *Agent) forward(msg message.Message) {
	a.dataMu.Lock()
	defer a.dataMu.Unlock()
	a.sink.OnData(msg)
	a.forwarded.Add(1)
	metrics.RecordForwarded(msg.Kind.String())
}

func (a *Agent) ignore(reason string) {
	a.ignored.Add(1)
	metrics.RecordIgnored(reason)
}

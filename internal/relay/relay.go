// Package relay turns calls from the embedding application into commands
// for the companion.
package relay

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"FitTrack-Bridge/internal/channel"
	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/core/metrics"
	"FitTrack-Bridge/internal/message"
	"FitTrack-Bridge/internal/reachability"
)

// Outcome of a command attempt.
const (
	OutcomeSent        = "sent"
	OutcomeUnreachable = "unreachable"
	OutcomeFailed      = "failed"
)

const defaultHistory = 32

// Attempt records one Start or Stop call.
type Attempt struct {
	Command message.CommandName `json:"command"`
	Outcome string              `json:"outcome"`
	Error   string              `json:"error,omitempty"`
	At      time.Time           `json:"at"`
}

// Refresher republishes the connection status; host.Agent satisfies it.
type Refresher interface {
	Refresh()
}

type Option func(*Relay)

func WithClock(c clock.Clock) Option {
	return func(r *Relay) { r.clock = c }
}

// WithHistory caps how many attempts are retained.
func WithHistory(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.history = n
		}
	}
}

// Relay sends workout commands. Commands are fire-and-forget: there is no
// acknowledgement and no deferred fallback, so Start and Stop succeed for
// the caller even when the companion never sees them.
type Relay struct {
	ch        channel.Channel
	tracker   *reachability.Tracker
	refresher Refresher
	clock     clock.Clock
	history   int
	log       *logger.Logger

	mu       sync.Mutex
	attempts []Attempt
}

func New(ch channel.Channel, tracker *reachability.Tracker, refresher Refresher, log *logger.Logger, opts ...Option) *Relay {
	r := &Relay{
		ch:        ch,
		tracker:   tracker,
		refresher: refresher,
		clock:     clock.New(),
		history:   defaultHistory,
		log:       log.Component("relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) Start() error {
	r.send(message.StartWorkout)
	return nil
}

func (r *Relay) Stop() error {
	r.send(message.StopWorkout)
	return nil
}

// IsConnected returns the cached reachability; it does not probe the peer.
func (r *Relay) IsConnected() bool {
	return r.tracker.IsReachable()
}

// Refresh asks the host agent to republish the connection status.
func (r *Relay) Refresh() {
	if r.refresher != nil {
		r.refresher.Refresh()
	}
}

// Attempts returns the retained command attempts, oldest first.
func (r *Relay) Attempts() []Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Attempt(nil), r.attempts...)
}

func (r *Relay) send(name message.CommandName) {
	a := Attempt{Command: name, At: r.clock.Now(), Outcome: OutcomeUnreachable}
	if r.tracker.IsReachable() {
		a.Outcome = OutcomeSent
		if err := r.ch.Send(message.Encode(message.NewCommand(name))); err != nil {
			a.Outcome = OutcomeFailed
			a.Error = err.Error()
		}
	}

	metrics.RecordCommand(string(name), a.Outcome)
	ev := r.log.Info()
	if a.Outcome != OutcomeSent {
		ev = r.log.Warn()
	}
	ev.Str("command", string(name)).Str("outcome", a.Outcome).Str("error", a.Error).Msg("command relayed")

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.attempts) >= r.history {
		r.attempts = r.attempts[1:]
	}
	r.attempts = append(r.attempts, a)
}

// Package companion implements the wearable side of the bridge: it owns the
// workout state, samples it on a periodic tick and pushes updates to the
// host over the channel.
package companion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"FitTrack-Bridge/internal/channel"
	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/core/metrics"
	"FitTrack-Bridge/internal/message"
	"FitTrack-Bridge/internal/reachability"
)

const defaultTickInterval = time.Second

// ErrClosed is returned by Start once Close has begun.
var ErrClosed = errors.New("companion agent closed")

// WorkoutState is the companion's view of the current (or last) workout.
type WorkoutState struct {
	Active         bool
	StartTime      time.Time
	ElapsedSeconds int
	HeartRate      int
	Calories       int
	Steps          int
	DistanceMeters float64
}

func (s WorkoutState) metrics() message.Metrics {
	return message.Metrics{
		HeartRate:       s.HeartRate,
		Calories:        s.Calories,
		Steps:           s.Steps,
		DistanceMeters:  s.DistanceMeters,
		DurationSeconds: s.ElapsedSeconds,
	}
}

// Option configures an Agent.
type Option func(*Agent)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(a *Agent) { a.clock = c }
}

// WithTickInterval sets the live-update period. Non-positive values keep
// the one second default.
func WithTickInterval(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.tickInterval = d
		}
	}
}

// WithTracker shares a reachability tracker with other components.
func WithTracker(t *reachability.Tracker) Option {
	return func(a *Agent) { a.tracker = t }
}

// Agent is the companion sync agent. It implements channel.Delegate and
// SessionDelegate.
//
// All WorkoutState writes (tick, sensor callbacks, start, stop) and every
// outgoing message happen under mu, so a message never carries a partially
// updated snapshot and a tick can never be sent after the stop messages.
// opMu serializes Start, Stop and Close, which call out to the session
// without holding mu. collecting stays set until the session has ended, so
// samples flushed while ending still reach the final snapshot.
type Agent struct {
	ch           channel.Channel
	session      Session
	tracker      *reachability.Tracker
	clock        clock.Clock
	tickInterval time.Duration
	log          *logger.Logger

	opMu   sync.Mutex
	closed bool

	mu         sync.Mutex
	state      WorkoutState
	collecting bool
	token    uint64
	stopTick chan struct{}
	tickWG   sync.WaitGroup
	ctx      context.Context
}

var (
	_ channel.Delegate = (*Agent)(nil)
	_ SessionDelegate  = (*Agent)(nil)
)

func NewAgent(ch channel.Channel, session Session, log *logger.Logger, opts ...Option) *Agent {
	a := &Agent{
		ch:           ch,
		session:      session,
		clock:        clock.New(),
		tickInterval: defaultTickInterval,
		log:          log.Component("companion"),
		ctx:          context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tracker == nil {
		a.tracker = reachability.NewTracker()
	}
	return a
}

// Activate activates the channel with the agent as its delegate. The
// activation callback announces WatchReady; ctx is used for commands that
// arrive from the host.
func (a *Agent) Activate(ctx context.Context) error {
	a.opMu.Lock()
	a.closed = false
	a.opMu.Unlock()

	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()
	if err := a.ch.Activate(ctx, a); err != nil {
		return fmt.Errorf("activate channel: %w", err)
	}
	return nil
}

// Close stops any running workout and deactivates the channel. Start
// commands that arrive while closing are refused.
func (a *Agent) Close(ctx context.Context) error {
	a.opMu.Lock()
	a.closed = true
	stopErr := a.stopLocked(ctx)
	a.opMu.Unlock()

	// Deactivate joins the receive goroutine, which may be waiting on opMu.
	return errors.Join(stopErr, a.ch.Deactivate())
}

// Start begins a workout. Calling Start while a workout is active is a no-op;
// it never starts a second tick.
func (a *Agent) Start(ctx context.Context) error {
	a.opMu.Lock()
	defer a.opMu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.IsActive() {
		a.log.Debug().Msg("start ignored, workout already active")
		return nil
	}

	startAt := a.clock.Now()
	if err := a.session.Start(ctx, startAt, a); err != nil {
		metrics.RecordSessionError("start")
		a.log.Warn().Err(err).Msg("sensor session refused to start")
		return &SessionStartError{Err: err}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = WorkoutState{Active: true, StartTime: startAt}
	a.collecting = true
	a.startTickLocked()
	a.sendLocked(message.NewWorkoutStatus(true))
	a.log.Info().Time("start", startAt).Msg("workout started")
	return nil
}

// Stop ends the active workout. From idle it does nothing. The tick is
// cancelled and its goroutine has exited before the session is ended, so no
// LiveData can follow the stop messages. If the session fails to end the
// agent is idle anyway; the host gets WorkoutStatus(false) but no
// WorkoutComplete, and the error is returned.
func (a *Agent) Stop(ctx context.Context) error {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	return a.stopLocked(ctx)
}

func (a *Agent) stopLocked(ctx context.Context) error {
	a.mu.Lock()
	if !a.state.Active {
		a.mu.Unlock()
		return nil
	}
	a.token++
	close(a.stopTick)
	a.stopTick = nil
	a.state.Active = false
	a.mu.Unlock()

	a.tickWG.Wait()

	endAt := a.clock.Now()
	endErr := a.session.End(ctx, endAt)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.collecting = false
	a.state.ElapsedSeconds = elapsedSeconds(a.state.StartTime, endAt)
	a.sendLocked(message.NewWorkoutStatus(false))
	if endErr != nil {
		metrics.RecordSessionError("end")
		a.log.Error().Err(endErr).Msg("sensor session did not end cleanly; companion is idle regardless")
		return fmt.Errorf("end sensor session: %w", endErr)
	}
	a.sendLocked(message.NewWorkoutComplete(a.state.metrics()))
	a.log.Info().Int("duration", a.state.ElapsedSeconds).Msg("workout stopped")
	return nil
}

// IsActive reports whether a workout is running.
func (a *Agent) IsActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Active
}

// Snapshot returns a consistent copy of the workout state.
func (a *Agent) Snapshot() WorkoutState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Reachable reports the cached peer reachability.
func (a *Agent) Reachable() bool {
	return a.tracker.IsReachable()
}

func (a *Agent) startTickLocked() {
	a.token++
	token := a.token
	stop := make(chan struct{})
	a.stopTick = stop
	ticker := a.clock.Ticker(a.tickInterval)

	a.tickWG.Add(1)
	go func() {
		defer a.tickWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				a.tick(token)
			}
		}
	}()
}

// tick pushes one LiveData snapshot. Elapsed time is always now minus the
// start time, so delayed or skipped ticks never accumulate drift. A panic
// in one tick is logged and the loop keeps running.
func (a *Agent) tick(token uint64) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordTick("panic")
			a.log.Error().Interface("panic", r).Msg("tick failed")
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.Active || token != a.token {
		metrics.RecordTick("stale")
		return
	}
	a.state.ElapsedSeconds = elapsedSeconds(a.state.StartTime, a.clock.Now())
	a.sendLocked(message.NewLiveData(a.state.metrics(), true))
	metrics.RecordTick("sent")
}

// sendLocked delivers m immediately when the peer is reachable. Otherwise,
// or when the immediate send fails, deferrable kinds are queued for deferred
// transfer and the rest are dropped.
func (a *Agent) sendLocked(m message.Message) {
	payload := message.Encode(m)
	if a.tracker.IsReachable() {
		err := a.ch.Send(payload)
		if err == nil {
			return
		}
		a.log.Warn().Err(err).Str("kind", m.Kind.String()).Msg("immediate send failed")
	}
	if !m.Kind.Deferrable() {
		a.log.Debug().Str("kind", m.Kind.String()).Msg("peer unreachable, message dropped")
		return
	}
	if err := a.ch.Transfer(payload); err != nil {
		a.log.Error().Err(err).Str("kind", m.Kind.String()).Msg("deferred transfer failed")
	}
}

func (a *Agent) sendWatchReady() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sendLocked(message.NewWatchReady(a.state.Active))
}

// ChannelActivated implements channel.Delegate.
func (a *Agent) ChannelActivated(peerActive bool) {
	a.tracker.OnChannelActivated(peerActive)
	a.sendWatchReady()
}

// ChannelDeactivated implements channel.Delegate.
func (a *Agent) ChannelDeactivated() {
	a.tracker.OnChannelDeactivated()
}

// ReachabilityChanged implements channel.Delegate.
func (a *Agent) ReachabilityChanged(reachable bool) {
	a.tracker.OnReachabilityChanged(reachable)
}

// MessageReceived implements channel.Delegate. The host only ever sends
// commands; anything else is ignored.
func (a *Agent) MessageReceived(payload map[string]any) {
	msg, err := message.Decode(payload)
	if err != nil {
		a.log.Debug().Err(err).Msg("ignoring inbound payload")
		return
	}
	if msg.Kind != message.KindCommand {
		a.log.Debug().Str("kind", msg.Kind.String()).Msg("ignoring non-command message")
		return
	}

	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()

	switch msg.Command {
	case message.StartWorkout:
		if err := a.Start(ctx); errors.Is(err, ErrClosed) {
			a.log.Debug().Msg("start command ignored while closing")
		} else if err != nil {
			a.log.Warn().Err(err).Msg("remote start failed")
		}
	case message.StopWorkout:
		if err := a.Stop(ctx); err != nil {
			a.log.Warn().Err(err).Msg("remote stop failed")
		}
	}
}

// OnStateChanged implements SessionDelegate. A session that stops running
// on its own (for example ended from the platform UI) stops the agent.
func (a *Agent) OnStateChanged(running bool) {
	a.log.Debug().Bool("running", running).Msg("sensor session state changed")
	if running || !a.IsActive() {
		return
	}
	go func() {
		if err := a.Stop(context.Background()); err != nil {
			a.log.Warn().Err(err).Msg("stop after session ended")
		}
	}()
}

// OnDataCollected implements SessionDelegate. Samples update the state in
// place; only the tick and the final WorkoutComplete send them.
func (a *Agent) OnDataCollected(s Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.collecting {
		return
	}
	switch s.Metric {
	case MetricHeartRate:
		a.state.HeartRate = int(s.Value)
	case MetricCalories:
		a.state.Calories = int(s.Value)
	case MetricSteps:
		a.state.Steps = int(s.Value)
	case MetricDistance:
		a.state.DistanceMeters = s.Value
	default:
		a.log.Debug().Int("metric", int(s.Metric)).Msg("unknown sample metric")
	}
}

// OnError implements SessionDelegate.
func (a *Agent) OnError(err error) {
	metrics.RecordSessionError("runtime")
	a.log.Error().Err(err).Msg("sensor session error")
}

func elapsedSeconds(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	return int(now.Sub(start) / time.Second)
}

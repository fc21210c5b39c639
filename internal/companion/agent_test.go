package companion_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"FitTrack-Bridge/internal/channel"
	"FitTrack-Bridge/internal/companion"
	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/message"
	"FitTrack-Bridge/internal/mock"
)

const (
	waitFor = 2 * time.Second
	poll    = 2 * time.Millisecond
)

type delivery struct {
	deferred bool
	msg      message.Message
}

// fakeChannel records what the agent hands to the channel. Send fails when
// the peer is marked unreachable or sendErr is set, and panics on the next
// panicLive LiveData sends.
type fakeChannel struct {
	mu        sync.Mutex
	reachable bool
	sendErr   error
	panicLive int
	panicked  int
	delegate  channel.Delegate
	log       []delivery
}

func (f *fakeChannel) Activate(_ context.Context, d channel.Delegate) error {
	f.mu.Lock()
	f.delegate = d
	reachable := f.reachable
	f.mu.Unlock()
	d.ChannelActivated(reachable)
	return nil
}

func (f *fakeChannel) Reachable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachable
}

func (f *fakeChannel) Send(payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.reachable {
		return channel.ErrPeerUnreachable
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.panicLive > 0 && payload[message.KeyType] == message.TypeLiveData {
		f.panicLive--
		f.panicked++
		panic("transport blew up")
	}
	return f.recordLocked(false, payload)
}

func (f *fakeChannel) Transfer(payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recordLocked(true, payload)
}

func (f *fakeChannel) Deactivate() error {
	f.mu.Lock()
	d := f.delegate
	f.mu.Unlock()
	if d != nil {
		d.ChannelDeactivated()
	}
	return nil
}

func (f *fakeChannel) recordLocked(deferred bool, payload map[string]any) error {
	msg, err := message.Decode(payload)
	if err != nil {
		return err
	}
	f.log = append(f.log, delivery{deferred: deferred, msg: msg})
	return nil
}

func (f *fakeChannel) panics() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.panicked
}

func (f *fakeChannel) deliveries() []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivery(nil), f.log...)
}

func (f *fakeChannel) count(kind message.Kind) int {
	n := 0
	for _, d := range f.deliveries() {
		if d.msg.Kind == kind {
			n++
		}
	}
	return n
}

func (f *fakeChannel) liveDurations() []int {
	var out []int
	for _, d := range f.deliveries() {
		if d.msg.Kind == message.KindLiveData {
			out = append(out, d.msg.Metrics.DurationSeconds)
		}
	}
	return out
}

type fixture struct {
	ch      *fakeChannel
	session *mock.MockSession
	clock   *clock.Mock
	agent   *companion.Agent
}

func newFixture(t *testing.T, reachable bool) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		ch:      &fakeChannel{reachable: reachable},
		session: mock.NewMockSession(ctrl),
		clock:   clock.NewMock(),
	}
	f.agent = companion.NewAgent(f.ch, f.session, logger.Nop(), companion.WithClock(f.clock))
	require.NoError(t, f.agent.Activate(context.Background()))
	return f
}

func (f *fixture) expectSession() {
	f.session.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)
	f.session.EXPECT().End(gomock.Any(), gomock.Any()).Return(nil).Times(1)
}

// advance moves the mock clock one tick at a time and waits for each tick's
// LiveData so the ticker never coalesces.
func (f *fixture) advance(t *testing.T, ticks int) {
	t.Helper()
	for i := 0; i < ticks; i++ {
		want := f.ch.count(message.KindLiveData) + 1
		f.clock.Add(time.Second)
		require.Eventually(t, func() bool { return f.ch.count(message.KindLiveData) == want }, waitFor, poll)
	}
}

func TestAgent_AnnouncesWatchReadyOnActivation(t *testing.T) {
	f := newFixture(t, true)

	got := f.ch.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, message.NewWatchReady(false), got[0].msg)
	assert.False(t, got[0].deferred)
	assert.True(t, f.agent.Reachable())
}

func TestAgent_WatchReadyIsDeferredWhenPeerUnreachable(t *testing.T) {
	f := newFixture(t, false)

	got := f.ch.deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, message.KindWatchReady, got[0].msg.Kind)
	assert.True(t, got[0].deferred)
}

func TestAgent_StartTickStopSequence(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	assert.True(t, f.agent.IsActive())
	f.advance(t, 3)
	require.NoError(t, f.agent.Stop(ctx))
	assert.False(t, f.agent.IsActive())

	got := f.ch.deliveries()
	kinds := make([]message.Kind, 0, len(got))
	for _, d := range got {
		kinds = append(kinds, d.msg.Kind)
	}
	assert.Equal(t, []message.Kind{
		message.KindWatchReady,
		message.KindWorkoutStatus,
		message.KindLiveData,
		message.KindLiveData,
		message.KindLiveData,
		message.KindWorkoutStatus,
		message.KindWorkoutComplete,
	}, kinds)

	assert.True(t, got[1].msg.Active)
	assert.Equal(t, []int{1, 2, 3}, f.ch.liveDurations())
	assert.False(t, got[5].msg.Active)
	assert.Equal(t, 3, got[6].msg.Metrics.DurationSeconds)
	assert.False(t, got[6].msg.Active)
}

func TestAgent_NoLiveDataAfterStop(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	f.advance(t, 1)
	require.NoError(t, f.agent.Stop(ctx))

	before := len(f.ch.deliveries())
	f.clock.Add(3 * time.Second)
	time.Sleep(20 * time.Millisecond)

	got := f.ch.deliveries()
	assert.Len(t, got, before)
	assert.Equal(t, message.KindWorkoutComplete, got[len(got)-1].msg.Kind)
}

func TestAgent_ElapsedDoesNotDrift(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	f.clock.Add(5 * time.Second)

	require.Eventually(t, func() bool {
		d := f.ch.liveDurations()
		return len(d) > 0 && d[len(d)-1] == 5
	}, waitFor, poll)

	durations := f.ch.liveDurations()
	for i, d := range durations {
		assert.LessOrEqual(t, d, 5)
		if i > 0 {
			assert.GreaterOrEqual(t, d, durations[i-1])
		}
	}
	assert.Equal(t, 5, f.agent.Snapshot().ElapsedSeconds)
	require.NoError(t, f.agent.Stop(ctx))
}

func TestAgent_StopWhenIdleIsNoop(t *testing.T) {
	f := newFixture(t, true)

	require.NoError(t, f.agent.Stop(context.Background()))
	assert.Len(t, f.ch.deliveries(), 1)
	assert.False(t, f.agent.IsActive())
}

func TestAgent_DoubleStartKeepsOneTick(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	require.NoError(t, f.agent.Start(ctx))
	assert.Equal(t, 1, f.ch.count(message.KindWorkoutStatus))

	f.advance(t, 1)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []int{1}, f.ch.liveDurations())

	require.NoError(t, f.agent.Stop(ctx))
}

func TestAgent_SessionStartFailureStaysIdle(t *testing.T) {
	f := newFixture(t, true)
	f.session.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(companion.ErrNotAuthorized)

	err := f.agent.Start(context.Background())
	var startErr *companion.SessionStartError
	require.ErrorAs(t, err, &startErr)
	assert.ErrorIs(t, err, companion.ErrNotAuthorized)
	assert.False(t, f.agent.IsActive())
	assert.Equal(t, 0, f.ch.count(message.KindWorkoutStatus))

	f.clock.Add(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.ch.liveDurations())
}

func TestAgent_SessionEndFailureStillGoesIdle(t *testing.T) {
	f := newFixture(t, true)
	endErr := errors.New("session stuck")
	f.session.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.session.EXPECT().End(gomock.Any(), gomock.Any()).Return(endErr)
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	f.advance(t, 1)
	err := f.agent.Stop(ctx)
	assert.ErrorIs(t, err, endErr)
	assert.False(t, f.agent.IsActive())

	got := f.ch.deliveries()
	last := got[len(got)-1].msg
	assert.Equal(t, message.NewWorkoutStatus(false), last)
	assert.Equal(t, 0, f.ch.count(message.KindWorkoutComplete))
}

func TestAgent_SamplesUpdateStateWithoutSending(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	before := len(f.ch.deliveries())

	f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricHeartRate, Value: 131.6})
	f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricCalories, Value: 12.9})
	f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricSteps, Value: 240})
	f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricDistance, Value: 187.2})
	assert.Len(t, f.ch.deliveries(), before)

	snap := f.agent.Snapshot()
	assert.Equal(t, 131, snap.HeartRate)
	assert.Equal(t, 12, snap.Calories)
	assert.Equal(t, 240, snap.Steps)
	assert.InDelta(t, 187.2, snap.DistanceMeters, 1e-9)

	f.advance(t, 1)
	got := f.ch.deliveries()
	live := got[len(got)-1].msg
	assert.Equal(t, message.Metrics{HeartRate: 131, Calories: 12, Steps: 240, DistanceMeters: 187.2, DurationSeconds: 1}, live.Metrics)
	assert.True(t, live.Active)

	require.NoError(t, f.agent.Stop(ctx))
	got = f.ch.deliveries()
	assert.Equal(t, 240, got[len(got)-1].msg.Metrics.Steps)
}

func TestAgent_SamplesIgnoredWhenIdle(t *testing.T) {
	f := newFixture(t, true)

	f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricHeartRate, Value: 99})
	assert.Zero(t, f.agent.Snapshot().HeartRate)
}

func TestAgent_UnreachablePeerDefersStatusAndDropsLiveData(t *testing.T) {
	f := newFixture(t, false)
	f.expectSession()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	f.clock.Add(time.Second)
	require.Eventually(t, func() bool { return f.agent.Snapshot().ElapsedSeconds == 1 }, waitFor, poll)
	require.NoError(t, f.agent.Stop(ctx))

	got := f.ch.deliveries()
	kinds := make([]message.Kind, 0, len(got))
	for _, d := range got {
		assert.True(t, d.deferred, "kind %s", d.msg.Kind)
		kinds = append(kinds, d.msg.Kind)
	}
	assert.Equal(t, []message.Kind{
		message.KindWatchReady,
		message.KindWorkoutStatus,
		message.KindWorkoutStatus,
		message.KindWorkoutComplete,
	}, kinds)
}

func TestAgent_FailedSendFallsBackToTransfer(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	f.ch.mu.Lock()
	f.ch.sendErr = errors.New("link flapped")
	f.ch.mu.Unlock()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	got := f.ch.deliveries()
	last := got[len(got)-1]
	assert.Equal(t, message.NewWorkoutStatus(true), last.msg)
	assert.True(t, last.deferred)
	require.NoError(t, f.agent.Stop(ctx))
}

func TestAgent_ReachabilityFollowsChannel(t *testing.T) {
	f := newFixture(t, false)
	assert.False(t, f.agent.Reachable())

	f.agent.ReachabilityChanged(true)
	assert.True(t, f.agent.Reachable())

	f.agent.ChannelDeactivated()
	assert.False(t, f.agent.Reachable())
}

func TestAgent_CommandsDriveWorkout(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()

	f.agent.MessageReceived(message.Encode(message.NewCommand(message.StartWorkout)))
	assert.True(t, f.agent.IsActive())

	f.agent.MessageReceived(message.Encode(message.NewCommand(message.StartWorkout)))
	assert.True(t, f.agent.IsActive())

	f.agent.MessageReceived(message.Encode(message.NewCommand(message.StopWorkout)))
	assert.False(t, f.agent.IsActive())
	assert.Equal(t, 1, f.ch.count(message.KindWorkoutComplete))
}

func TestAgent_IgnoresNonCommandPayloads(t *testing.T) {
	f := newFixture(t, true)

	f.agent.MessageReceived(map[string]any{"type": "liveData", "heartRate": "oops"})
	f.agent.MessageReceived(message.Encode(message.NewWorkoutStatus(true)))
	f.agent.MessageReceived(map[string]any{"command": "dance"})
	assert.False(t, f.agent.IsActive())
}

func TestAgent_SessionEndingOnItsOwnStopsWorkout(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()

	require.NoError(t, f.agent.Start(context.Background()))
	f.agent.OnStateChanged(false)

	require.Eventually(t, func() bool { return !f.agent.IsActive() }, waitFor, poll)
	require.Eventually(t, func() bool { return f.ch.count(message.KindWorkoutComplete) == 1 }, waitFor, poll)
}

func TestAgent_CloseStopsWorkoutAndDeactivates(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()

	require.NoError(t, f.agent.Start(context.Background()))
	require.NoError(t, f.agent.Close(context.Background()))
	assert.False(t, f.agent.IsActive())
	assert.False(t, f.agent.Reachable())
}

func TestAgent_PanickingTickDoesNotStopLaterTicks(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	f.ch.mu.Lock()
	f.ch.panicLive = 1
	f.ch.mu.Unlock()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	f.clock.Add(time.Second)
	require.Eventually(t, func() bool { return f.ch.panics() == 1 }, waitFor, poll)
	f.clock.Add(time.Second)
	require.Eventually(t, func() bool { return f.ch.count(message.KindLiveData) == 1 }, waitFor, poll)

	assert.Equal(t, []int{2}, f.ch.liveDurations())
	assert.True(t, f.agent.IsActive())
	require.NoError(t, f.agent.Stop(ctx))
	assert.Equal(t, 1, f.ch.count(message.KindWorkoutComplete))
}

func TestAgent_FailedLiveSendDoesNotStopLaterTicks(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	f.ch.mu.Lock()
	f.ch.sendErr = errors.New("link flapped")
	f.ch.mu.Unlock()
	f.clock.Add(time.Second)
	require.Eventually(t, func() bool { return f.agent.Snapshot().ElapsedSeconds == 1 }, waitFor, poll)

	f.ch.mu.Lock()
	f.ch.sendErr = nil
	f.ch.mu.Unlock()
	f.clock.Add(time.Second)
	require.Eventually(t, func() bool { return f.ch.count(message.KindLiveData) == 1 }, waitFor, poll)

	assert.Equal(t, []int{2}, f.ch.liveDurations())
	require.NoError(t, f.agent.Stop(ctx))
}

func TestAgent_CloseRefusesLaterStarts(t *testing.T) {
	f := newFixture(t, true)
	f.expectSession()
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	require.NoError(t, f.agent.Close(ctx))

	f.agent.MessageReceived(message.Encode(message.NewCommand(message.StartWorkout)))
	assert.False(t, f.agent.IsActive())
	assert.ErrorIs(t, f.agent.Start(ctx), companion.ErrClosed)

	f.clock.Add(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.ch.liveDurations())
	assert.Equal(t, 1, f.ch.count(message.KindWorkoutComplete))
}

func TestAgent_ActivateAfterCloseAcceptsStarts(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.agent.Close(ctx))

	require.NoError(t, f.agent.Activate(ctx))
	f.expectSession()
	require.NoError(t, f.agent.Start(ctx))
	assert.True(t, f.agent.IsActive())
	require.NoError(t, f.agent.Stop(ctx))
}

func TestAgent_SamplesFlushedWhileEndingReachCompletion(t *testing.T) {
	f := newFixture(t, true)
	f.session.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	f.session.EXPECT().End(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, time.Time) error {
		f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricHeartRate, Value: 142})
		f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricSteps, Value: 950})
		return nil
	})
	ctx := context.Background()

	require.NoError(t, f.agent.Start(ctx))
	f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricHeartRate, Value: 120})
	require.NoError(t, f.agent.Stop(ctx))

	got := f.ch.deliveries()
	last := got[len(got)-1].msg
	require.Equal(t, message.KindWorkoutComplete, last.Kind)
	assert.Equal(t, 142, last.Metrics.HeartRate)
	assert.Equal(t, 950, last.Metrics.Steps)

	f.agent.OnDataCollected(companion.Sample{Metric: companion.MetricHeartRate, Value: 60})
	assert.Equal(t, 142, f.agent.Snapshot().HeartRate)
}

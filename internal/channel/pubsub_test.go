package channel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/core/network"
)

const (
	waitFor = 2 * time.Second
	poll    = 5 * time.Millisecond
)

type recordingDelegate struct {
	mu           sync.Mutex
	activated    []bool
	deactivated  int
	reachability []bool
	messages     []map[string]any
}

func (r *recordingDelegate) ChannelActivated(peerActive bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activated = append(r.activated, peerActive)
}

func (r *recordingDelegate) ChannelDeactivated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deactivated++
}

func (r *recordingDelegate) ReachabilityChanged(reachable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reachability = append(r.reachability, reachable)
}

func (r *recordingDelegate) MessageReceived(payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, payload)
}

func (r *recordingDelegate) snapshot() (reach []bool, msgs []map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.reachability...), append([]map[string]any(nil), r.messages...)
}

type pair struct {
	ps             *network.MemoryPubSub
	companion      *PubSubChannel
	host           *PubSubChannel
	companionClock *clock.Mock
	hostClock      *clock.Mock
	companionDel   *recordingDelegate
	hostDel        *recordingDelegate
}

func newPair(t *testing.T) *pair {
	t.Helper()
	p := &pair{
		ps:             network.NewMemoryPubSub(0),
		companionClock: clock.NewMock(),
		hostClock:      clock.NewMock(),
		companionDel:   &recordingDelegate{},
		hostDel:        &recordingDelegate{},
	}
	opts := Options{Namespace: "test", HeartbeatInterval: time.Second, PeerTimeout: 3 * time.Second, QueueSize: 3}

	copts := opts
	copts.Role = RoleCompanion
	copts.Clock = p.companionClock
	p.companion = NewPubSubChannel(p.ps, copts, logger.Nop())

	hopts := opts
	hopts.Role = RoleHost
	hopts.Clock = p.hostClock
	p.host = NewPubSubChannel(p.ps, hopts, logger.Nop())
	return p
}

func (p *pair) activate(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, p.companion.Activate(ctx, p.companionDel))
	require.NoError(t, p.host.Activate(ctx, p.hostDel))
	require.Eventually(t, func() bool {
		return p.companion.Reachable() && p.host.Reachable()
	}, waitFor, poll)
	t.Cleanup(func() {
		_ = p.companion.Deactivate()
		_ = p.host.Deactivate()
	})
}

func TestChannel_PresenceHandshake(t *testing.T) {
	p := newPair(t)
	p.activate(t)

	assert.Equal(t, []bool{false}, p.companionDel.activated)
	assert.Equal(t, []bool{false}, p.hostDel.activated)
	reach, _ := p.hostDel.snapshot()
	assert.Equal(t, []bool{true}, reach)
	reach, _ = p.companionDel.snapshot()
	assert.Equal(t, []bool{true}, reach)
}

func TestChannel_SendDeliversInOrder(t *testing.T) {
	p := newPair(t)
	p.activate(t)

	for i := 1; i <= 5; i++ {
		require.NoError(t, p.companion.Send(map[string]any{"seq": i}))
	}

	require.Eventually(t, func() bool {
		_, msgs := p.hostDel.snapshot()
		return len(msgs) == 5
	}, waitFor, poll)
	_, msgs := p.hostDel.snapshot()
	for i, m := range msgs {
		assert.EqualValues(t, i+1, m["seq"])
	}
}

func TestChannel_SendFailsWhenNotReachable(t *testing.T) {
	p := newPair(t)
	assert.ErrorIs(t, p.companion.Send(map[string]any{"x": 1}), ErrNotActive)

	require.NoError(t, p.companion.Activate(context.Background(), p.companionDel))
	defer p.companion.Deactivate()

	assert.ErrorIs(t, p.companion.Send(map[string]any{"x": 1}), ErrPeerUnreachable)
}

func TestChannel_TransferQueuesUntilPeerArrives(t *testing.T) {
	p := newPair(t)
	require.NoError(t, p.companion.Activate(context.Background(), p.companionDel))

	require.NoError(t, p.companion.Transfer(map[string]any{"seq": 1}))
	require.NoError(t, p.companion.Transfer(map[string]any{"seq": 2}))
	assert.Equal(t, 2, p.companion.QueueLen())

	require.NoError(t, p.host.Activate(context.Background(), p.hostDel))
	defer p.host.Deactivate()
	defer p.companion.Deactivate()

	require.Eventually(t, func() bool {
		_, msgs := p.hostDel.snapshot()
		return len(msgs) == 2
	}, waitFor, poll)
	_, msgs := p.hostDel.snapshot()
	assert.EqualValues(t, 1, msgs[0]["seq"])
	assert.EqualValues(t, 2, msgs[1]["seq"])
	assert.Zero(t, p.companion.QueueLen())
}

func TestChannel_TransferQueueDropsOldest(t *testing.T) {
	p := newPair(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, p.companion.Transfer(map[string]any{"seq": i}))
	}
	assert.Equal(t, 3, p.companion.QueueLen())

	p.activate(t)
	require.Eventually(t, func() bool {
		_, msgs := p.hostDel.snapshot()
		return len(msgs) == 3
	}, waitFor, poll)
	_, msgs := p.hostDel.snapshot()
	assert.EqualValues(t, 3, msgs[0]["seq"])
	assert.EqualValues(t, 5, msgs[2]["seq"])
}

func TestChannel_PeerTimeoutMarksUnreachable(t *testing.T) {
	p := newPair(t)
	p.activate(t)

	// Only the host's clock moves, so the companion sends no heartbeats.
	p.hostClock.Add(5 * time.Second)

	require.Eventually(t, func() bool { return !p.host.Reachable() }, waitFor, poll)
	reach, _ := p.hostDel.snapshot()
	assert.Equal(t, []bool{true, false}, reach)
	assert.ErrorIs(t, p.host.Send(map[string]any{"command": "startWorkout"}), ErrPeerUnreachable)
}

func TestChannel_HeartbeatsKeepPeerReachable(t *testing.T) {
	p := newPair(t)
	p.activate(t)

	for i := 0; i < 5; i++ {
		p.companionClock.Add(time.Second)
		time.Sleep(10 * time.Millisecond)
		p.hostClock.Add(time.Second)
		time.Sleep(10 * time.Millisecond)
	}

	assert.True(t, p.host.Reachable())
	assert.True(t, p.companion.Reachable())
}

func TestChannel_LeaveMarksPeerUnreachableImmediately(t *testing.T) {
	p := newPair(t)
	p.activate(t)

	require.NoError(t, p.companion.Deactivate())

	require.Eventually(t, func() bool { return !p.host.Reachable() }, waitFor, poll)
	assert.Equal(t, 1, p.companionDel.deactivated)
	assert.False(t, p.companion.Reachable())
}

func TestChannel_Reactivate(t *testing.T) {
	p := newPair(t)
	p.activate(t)

	require.NoError(t, p.companion.Deactivate())
	require.Eventually(t, func() bool { return !p.host.Reachable() }, waitFor, poll)

	require.NoError(t, p.companion.Activate(context.Background(), p.companionDel))
	assert.ErrorIs(t, p.companion.Activate(context.Background(), p.companionDel), ErrAlreadyActive)
	require.Eventually(t, func() bool {
		return p.companion.Reachable() && p.host.Reachable()
	}, waitFor, poll)
	assert.Equal(t, []bool{false, false}, p.companionDel.activated)
}

func TestPeerOf(t *testing.T) {
	assert.Equal(t, RoleHost, PeerOf(RoleCompanion))
	assert.Equal(t, RoleCompanion, PeerOf(RoleHost))
}

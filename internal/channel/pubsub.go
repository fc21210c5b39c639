package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"FitTrack-Bridge/internal/core/logger"
	"FitTrack-Bridge/internal/core/metrics"
	"FitTrack-Bridge/internal/core/network"
)

const (
	defaultNamespace         = "fitsync.workout"
	defaultHeartbeatInterval = time.Second
	defaultPeerTimeout       = 3 * time.Second
	defaultQueueSize         = 256
)

// Options configures a PubSubChannel.
type Options struct {
	Role              string
	Namespace         string
	HeartbeatInterval time.Duration
	PeerTimeout       time.Duration
	QueueSize         int
	Clock             clock.Clock
}

func (o Options) withDefaults() Options {
	if o.Role == "" {
		o.Role = RoleCompanion
	}
	if o.Namespace == "" {
		o.Namespace = defaultNamespace
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = defaultHeartbeatInterval
	}
	if o.PeerTimeout <= 0 {
		o.PeerTimeout = defaultPeerTimeout
	}
	if o.PeerTimeout < o.HeartbeatInterval {
		o.PeerTimeout = 3 * o.HeartbeatInterval
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

// PubSubChannel is a Channel over a network.PubSub. Each role reads the
// topic "<namespace>.<role>" and writes to the peer's topic.
type PubSubChannel struct {
	ps       network.PubSub
	opts     Options
	log      *logger.Logger
	instance string
	inbox    string
	outbox   string

	// notifyMu serializes state transitions together with their delegate
	// callbacks so the delegate sees transitions in order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	delegate  Delegate
	active    bool
	reachable bool
	lastSeen  time.Time
	peer      string
	queue     []map[string]any
	cancelSub func()
	stop      chan struct{}
	wg        sync.WaitGroup
}

var _ Channel = (*PubSubChannel)(nil)

func NewPubSubChannel(ps network.PubSub, opts Options, log *logger.Logger) *PubSubChannel {
	opts = opts.withDefaults()
	return &PubSubChannel{
		ps:       ps,
		opts:     opts,
		log:      log.Component("channel"),
		instance: uuid.NewString(),
		inbox:    opts.Namespace + "." + opts.Role,
		outbox:   opts.Namespace + "." + PeerOf(opts.Role),
	}
}

// Activate subscribes to the inbox, announces presence and starts the
// heartbeat loop. The delegate is told the peer is not yet reachable; the
// first presence from the peer flips that.
func (c *PubSubChannel) Activate(ctx context.Context, d Delegate) error {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	in, cancel, err := c.ps.Subscribe(c.inbox)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", c.inbox, err)
	}
	c.delegate = d
	c.active = true
	c.reachable = false
	c.peer = ""
	c.cancelSub = cancel
	c.stop = make(chan struct{})
	c.wg.Add(2)
	go c.receive(ctx, in, c.stop)
	go c.heartbeat(ctx, c.stop)
	if err := c.publishLocked(envelopePresence, nil); err != nil {
		c.log.Warn().Err(err).Msg("initial presence failed")
	}
	peerActive := c.reachable
	c.mu.Unlock()

	metrics.SetPeerReachable(c.opts.Role, false)
	c.log.Info().Str("inbox", c.inbox).Str("instance", c.instance).Msg("channel activated")
	d.ChannelActivated(peerActive)
	return nil
}

func (c *PubSubChannel) Reachable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reachable
}

func (c *PubSubChannel) Send(payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		metrics.RecordSendFailure(c.opts.Role, "inactive")
		return ErrNotActive
	}
	if !c.reachable {
		metrics.RecordSendFailure(c.opts.Role, "unreachable")
		return ErrPeerUnreachable
	}
	if err := c.publishLocked(envelopeMessage, payload); err != nil {
		metrics.RecordSendFailure(c.opts.Role, "transport")
		return err
	}
	metrics.RecordSent(c.opts.Role, "immediate")
	return nil
}

func (c *PubSubChannel) Transfer(payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active && c.reachable && len(c.queue) == 0 {
		err := c.publishLocked(envelopeMessage, payload)
		if err == nil {
			metrics.RecordSent(c.opts.Role, "deferred")
			return nil
		}
		c.log.Warn().Err(err).Msg("deferred transfer publish failed, queueing")
	}
	c.enqueueLocked(payload)
	return nil
}

// Deactivate announces departure, stops the background loops and waits for
// them to exit. Queued transfers survive for the next activation.
func (c *PubSubChannel) Deactivate() error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return nil
	}
	if err := c.publishLocked(envelopeLeave, nil); err != nil {
		c.log.Debug().Err(err).Msg("leave announcement failed")
	}
	c.active = false
	c.reachable = false
	close(c.stop)
	c.cancelSub()
	d := c.delegate
	c.mu.Unlock()

	c.wg.Wait()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	metrics.SetPeerReachable(c.opts.Role, false)
	c.log.Info().Msg("channel deactivated")
	d.ChannelDeactivated()
	return nil
}

// QueueLen reports how many transfers are waiting for the peer.
func (c *PubSubChannel) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

func (c *PubSubChannel) receive(ctx context.Context, in <-chan network.Message, stop <-chan struct{}) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			c.handle(msg)
		}
	}
}

func (c *PubSubChannel) handle(msg network.Message) {
	var env envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		c.log.Warn().Err(err).Str("topic", msg.Topic).Msg("dropping unreadable envelope")
		return
	}
	if env.From == c.instance {
		return
	}

	switch env.Kind {
	case envelopePresence:
		c.peerSeen(env.From)
	case envelopeLeave:
		c.peerLeft(env.From)
	case envelopeMessage:
		c.peerSeen(env.From)
		c.mu.Lock()
		d, active := c.delegate, c.active
		c.mu.Unlock()
		if active {
			d.MessageReceived(env.Body)
		}
	default:
		c.log.Debug().Str("kind", env.Kind).Msg("ignoring unknown envelope kind")
	}
}

func (c *PubSubChannel) peerSeen(instance string) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.lastSeen = c.opts.Clock.Now()
	if c.peer != instance {
		if c.peer != "" {
			c.log.Info().Str("previous", c.peer).Str("current", instance).Msg("peer restarted")
		}
		c.peer = instance
	}
	if c.reachable {
		c.mu.Unlock()
		return
	}
	c.reachable = true
	// Answer right away so the peer does not wait a full heartbeat for us.
	if err := c.publishLocked(envelopePresence, nil); err != nil {
		c.log.Debug().Err(err).Msg("presence reply failed")
	}
	c.flushLocked()
	d := c.delegate
	c.mu.Unlock()

	metrics.SetPeerReachable(c.opts.Role, true)
	c.log.Info().Str("peer", instance).Msg("peer reachable")
	d.ReachabilityChanged(true)
}

func (c *PubSubChannel) peerLeft(instance string) {
	c.markUnreachable(func() bool { return c.peer == "" || c.peer == instance }, "peer left")
}

func (c *PubSubChannel) heartbeat(ctx context.Context, stop <-chan struct{}) {
	defer c.wg.Done()
	ticker := c.opts.Clock.Ticker(c.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.active {
				if err := c.publishLocked(envelopePresence, nil); err != nil {
					c.log.Debug().Err(err).Msg("heartbeat publish failed")
				}
			}
			c.mu.Unlock()
			c.markUnreachable(func() bool {
				return c.opts.Clock.Now().Sub(c.lastSeen) > c.opts.PeerTimeout
			}, "peer timed out")
		}
	}
}

// markUnreachable flips reachability to false when cond holds. cond runs
// with c.mu held.
func (c *PubSubChannel) markUnreachable(cond func() bool, reason string) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if !c.active || !c.reachable || !cond() {
		c.mu.Unlock()
		return
	}
	c.reachable = false
	d := c.delegate
	c.mu.Unlock()

	metrics.SetPeerReachable(c.opts.Role, false)
	c.log.Info().Str("reason", reason).Msg("peer unreachable")
	d.ReachabilityChanged(false)
}

// flushLocked delivers queued transfers in order. A failed publish keeps the
// failed item and everything after it queued.
func (c *PubSubChannel) flushLocked() {
	for len(c.queue) > 0 {
		if err := c.publishLocked(envelopeMessage, c.queue[0]); err != nil {
			c.log.Warn().Err(err).Int("pending", len(c.queue)).Msg("deferred flush interrupted")
			break
		}
		metrics.RecordSent(c.opts.Role, "deferred")
		c.queue[0] = nil
		c.queue = c.queue[1:]
	}
	metrics.SetDeferredDepth(c.opts.Role, len(c.queue))
}

func (c *PubSubChannel) enqueueLocked(payload map[string]any) {
	if len(c.queue) >= c.opts.QueueSize {
		c.log.Warn().Int("size", c.opts.QueueSize).Msg("deferred queue full, dropping oldest transfer")
		metrics.RecordDeferredDropped(c.opts.Role)
		c.queue[0] = nil
		c.queue = c.queue[1:]
	}
	c.queue = append(c.queue, payload)
	metrics.SetDeferredDepth(c.opts.Role, len(c.queue))
}

func (c *PubSubChannel) publishLocked(kind string, body map[string]any) error {
	b, err := json.Marshal(envelope{
		ID:   uuid.NewString(),
		From: c.instance,
		Kind: kind,
		Body: body,
		At:   c.opts.Clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", kind, err)
	}
	if err := c.ps.Publish(c.outbox, b); err != nil {
		return fmt.Errorf("publish %s: %w", c.outbox, err)
	}
	return nil
}

// Package metrics holds the Prometheus collectors shared by the bridge
// components. Collectors register with the default registry on init and are
// served by the host binary on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fitsync"

var (
	messagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "messages_sent_total",
		Help:      "Messages handed to the transport, by delivery mode.",
	}, []string{"role", "mode"})

	sendFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "send_failures_total",
		Help:      "Immediate sends that failed because the peer was unreachable or the transport errored.",
	}, []string{"role", "reason"})

	deferredDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "deferred_dropped_total",
		Help:      "Deferred transfers evicted because the queue was full.",
	}, []string{"role"})

	deferredDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "deferred_queue_depth",
		Help:      "Deferred transfers waiting for the peer to become reachable.",
	}, []string{"role"})

	peerReachable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "peer_reachable",
		Help:      "1 while the peer is reachable, 0 otherwise.",
	}, []string{"role"})

	decodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "host",
		Name:      "decode_errors_total",
		Help:      "Inbound payloads dropped because they could not be decoded.",
	})

	ignoredMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "host",
		Name:      "ignored_messages_total",
		Help:      "Inbound messages the host does not act on.",
	}, []string{"reason"})

	forwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "host",
		Name:      "forwarded_total",
		Help:      "Messages forwarded to the embedding application, by kind.",
	}, []string{"kind"})

	commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "commands_total",
		Help:      "Command attempts by command and outcome (sent, unreachable, failed).",
	}, []string{"command", "outcome"})

	ticks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "companion",
		Name:      "ticks_total",
		Help:      "Live-update ticks by result.",
	}, []string{"result"})

	sessionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "companion",
		Name:      "session_errors_total",
		Help:      "Sensor session failures by phase (start, end, runtime).",
	}, []string{"phase"})
)

func init() {
	prometheus.MustRegister(
		messagesSent, sendFailures, deferredDropped, deferredDepth, peerReachable,
		decodeErrors, ignoredMessages, forwarded,
		commands,
		ticks, sessionErrors,
	)
}

func RecordSent(role, mode string) {
	messagesSent.WithLabelValues(role, mode).Inc()
}

func RecordSendFailure(role, reason string) {
	sendFailures.WithLabelValues(role, reason).Inc()
}

func RecordDeferredDropped(role string) {
	deferredDropped.WithLabelValues(role).Inc()
}

func SetDeferredDepth(role string, depth int) {
	deferredDepth.WithLabelValues(role).Set(float64(depth))
}

func SetPeerReachable(role string, reachable bool) {
	v := 0.0
	if reachable {
		v = 1
	}
	peerReachable.WithLabelValues(role).Set(v)
}

func RecordDecodeError() {
	decodeErrors.Inc()
}

func RecordIgnored(reason string) {
	ignoredMessages.WithLabelValues(reason).Inc()
}

func RecordForwarded(kind string) {
	forwarded.WithLabelValues(kind).Inc()
}

func RecordCommand(command, outcome string) {
	commands.WithLabelValues(command, outcome).Inc()
}

func RecordTick(result string) {
	ticks.WithLabelValues(result).Inc()
}

func RecordSessionError(phase string) {
	sessionErrors.WithLabelValues(phase).Inc()
}

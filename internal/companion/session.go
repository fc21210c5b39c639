package companion

import (
	"context"
	"errors"
	"time"
)

// ErrNotAuthorized is returned by sessions when sensor access was denied.
var ErrNotAuthorized = errors.New("sensor access not authorized")

// Metric identifies a sensor statistic.
type Metric int

const (
	MetricHeartRate Metric = iota + 1
	MetricCalories
	MetricSteps
	MetricDistance
)

func (m Metric) String() string {
	switch m {
	case MetricHeartRate:
		return "heart_rate"
	case MetricCalories:
		return "calories"
	case MetricSteps:
		return "steps"
	case MetricDistance:
		return "distance"
	default:
		return "unknown"
	}
}

// Sample is the latest statistic for one metric. Heart rate is the most
// recent reading; the other metrics are running totals for the workout.
type Sample struct {
	Metric Metric
	Value  float64
}

// SessionDelegate receives callbacks from a sensor session. Callbacks may
// arrive on any goroutine.
type SessionDelegate interface {
	OnStateChanged(running bool)
	OnDataCollected(s Sample)
	OnError(err error)
}

// Session is the platform sensor session the companion drives. It is an
// external collaborator; the agent only depends on this interface.
type Session interface {
	// Start begins collection at the given time and reports to d until End.
	Start(ctx context.Context, at time.Time, d SessionDelegate) error
	End(ctx context.Context, at time.Time) error
}

// SessionStartError is returned by Agent.Start when the platform refuses or
// fails to start a sensor session. The agent stays idle.
type SessionStartError struct {
	Err error
}

func (e *SessionStartError) Error() string {
	return "start sensor session: " + e.Err.Error()
}

func (e *SessionStartError) Unwrap() error {
	return e.Err
}

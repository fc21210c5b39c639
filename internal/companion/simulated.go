package companion

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// SimulatedSessionOptions configures a SimulatedSession.
type SimulatedSessionOptions struct {
	Clock clock.Clock
	// Interval between synthetic sensor readings.
	Interval time.Duration
	// Authorized false makes Start fail with ErrNotAuthorized.
	Authorized bool
	Seed       uint64
}

// SimulatedSession stands in for the platform sensor session on machines
// without one. It emits a walking-pace workout: heart rate drifting around
// 110-150 bpm, steps, distance and active calories accumulating.
type SimulatedSession struct {
	opts SimulatedSessionOptions

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSimulatedSession(opts SimulatedSessionOptions) *SimulatedSession {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &SimulatedSession{opts: opts}
}

func (s *SimulatedSession) Start(_ context.Context, at time.Time, d SessionDelegate) error {
	if !s.opts.Authorized {
		return ErrNotAuthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("simulated session already running")
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	ticker := s.opts.Clock.Ticker(s.opts.Interval)
	go s.emit(d, ticker, s.stop, s.done)
	d.OnStateChanged(true)
	return nil
}

func (s *SimulatedSession) End(_ context.Context, _ time.Time) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errors.New("simulated session not running")
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()
	<-done
	return nil
}

func (s *SimulatedSession) emit(d SessionDelegate, ticker *clock.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()
	rng := rand.New(rand.NewPCG(s.opts.Seed, s.opts.Seed^0x9e3779b97f4a7c15))

	var (
		heartRate = 95.0
		steps     float64
		calories  float64
	)
	perSecond := s.opts.Interval.Seconds()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			heartRate = clamp(heartRate+rng.NormFloat64()*3+0.8, 80, 165)
			cadence := 1.6 + rng.Float64()*0.4
			steps += cadence * perSecond
			calories += (0.06 + heartRate/2000) * perSecond

			d.OnDataCollected(Sample{Metric: MetricHeartRate, Value: heartRate})
			d.OnDataCollected(Sample{Metric: MetricSteps, Value: steps})
			d.OnDataCollected(Sample{Metric: MetricDistance, Value: steps * 0.78})
			d.OnDataCollected(Sample{Metric: MetricCalories, Value: calories})
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

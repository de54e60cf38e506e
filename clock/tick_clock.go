// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package clock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrBeforeGenesis = errors.New("time is before genesis")

// Tick is a notification that a tick boundary has been reached
type Tick struct {
	Number uint64
	Start  time.Time
}

// TickTimeProvider converts between tick numbers and wall-clock time
type TickTimeProvider interface {
	TickToTime(tick uint64) (time.Time, error)
	TimeToTick(t time.Time) (uint64, error)
}

// LinearTicks numbers fixed-length ticks from a genesis time
type LinearTicks struct {
	Genesis    time.Time
	TickLength time.Duration
}

func (l LinearTicks) TickToTime(tick uint64) (time.Time, error) {
	if l.TickLength <= 0 {
		return time.Time{}, errors.New("tick length must be positive")
	}
	return l.Genesis.Add(time.Duration(tick) * l.TickLength), nil // #nosec G115
}

func (l LinearTicks) TimeToTick(t time.Time) (uint64, error) {
	if l.TickLength <= 0 {
		return 0, errors.New("tick length must be positive")
	}
	if t.Before(l.Genesis) {
		return 0, ErrBeforeGenesis
	}
	return uint64(t.Sub(l.Genesis) / l.TickLength), nil // #nosec G115
}

type TickClockConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// ClockTolerance is the maximum lateness when waking at a tick boundary
	// before a drift warning is logged. Default: 100ms
	ClockTolerance time.Duration
}

func DefaultTickClockConfig() TickClockConfig {
	return TickClockConfig{
		ClockTolerance: 100 * time.Millisecond,
	}
}

// TickClock wakes at each tick boundary and notifies subscribers. When the
// process falls behind, the tick it wakes in is emitted and intermediate
// ticks are not, so consumers must handle gaps
type TickClock struct {
	provider    TickTimeProvider
	config      TickClockConfig
	logger      *slog.Logger
	subscribers []chan Tick
	mu          sync.RWMutex
	cancel      context.CancelFunc
	ctx         context.Context
	running     bool
	wg          sync.WaitGroup
	tickGauge   prometheus.Gauge
	driftCount  prometheus.Counter

	// Replaced in tests
	nowFunc func() time.Time
}

func NewTickClock(
	provider TickTimeProvider,
	config TickClockConfig,
) *TickClock {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if config.ClockTolerance == 0 {
		config.ClockTolerance = DefaultTickClockConfig().ClockTolerance
	}
	tc := &TickClock{
		provider: provider,
		config:   config,
		logger:   config.Logger.With("component", "clock"),
		nowFunc:  time.Now,
	}
	if config.PromRegistry != nil {
		promautoFactory := promauto.With(config.PromRegistry)
		tc.tickGauge = promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: "clock_tick",
			Help: "last tick emitted by the clock",
		})
		tc.driftCount = promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "clock_drift_total",
			Help: "wake ups later than the clock tolerance",
		})
	}
	return tc
}

// Start begins the tick loop in a goroutine
func (tc *TickClock) Start(ctx context.Context) {
	tc.mu.Lock()
	if tc.running {
		tc.mu.Unlock()
		return
	}
	tc.running = true
	tc.ctx, tc.cancel = context.WithCancel(ctx)
	tc.mu.Unlock()

	tc.wg.Add(1)
	go tc.run()
}

// Stop halts the tick loop, closes all subscriber channels and waits for the
// loop to exit
func (tc *TickClock) Stop() {
	tc.mu.Lock()
	if !tc.running {
		tc.mu.Unlock()
		return
	}
	tc.running = false
	if tc.cancel != nil {
		tc.cancel()
	}
	for _, ch := range tc.subscribers {
		close(ch)
	}
	tc.subscribers = nil
	tc.mu.Unlock()

	tc.wg.Wait()
}

// Subscribe returns a buffered channel receiving each emitted tick
func (tc *TickClock) Subscribe() <-chan Tick {
	ch := make(chan Tick, 1)
	tc.mu.Lock()
	tc.subscribers = append(tc.subscribers, ch)
	tc.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel
func (tc *TickClock) Unsubscribe(ch <-chan Tick) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for i, sub := range tc.subscribers {
		if sub == ch {
			close(sub)
			tc.subscribers = append(tc.subscribers[:i], tc.subscribers[i+1:]...)
			return
		}
	}
}

// CurrentTick returns the tick number for the current wall-clock time
func (tc *TickClock) CurrentTick() (uint64, error) {
	return tc.provider.TimeToTick(tc.nowFunc())
}

func (tc *TickClock) TickToTime(tick uint64) (time.Time, error) {
	return tc.provider.TickToTime(tick)
}

// NextTickTime returns the time when the next tick starts
func (tc *TickClock) NextTickTime() (time.Time, error) {
	current, err := tc.currentOrGenesis()
	if err != nil {
		return time.Time{}, err
	}
	return tc.provider.TickToTime(current)
}

// TimeUntilTick returns the duration until the given tick starts. The result
// is negative for past ticks
func (tc *TickClock) TimeUntilTick(tick uint64) (time.Duration, error) {
	tickTime, err := tc.provider.TickToTime(tick)
	if err != nil {
		return 0, err
	}
	return tickTime.Sub(tc.nowFunc()), nil
}

// currentOrGenesis returns the next tick to wait for, which is tick 0 while
// genesis is still in the future
func (tc *TickClock) currentOrGenesis() (uint64, error) {
	current, err := tc.CurrentTick()
	if err != nil {
		if errors.Is(err, ErrBeforeGenesis) {
			return 0, nil
		}
		return 0, err
	}
	return current + 1, nil
}

func (tc *TickClock) run() {
	defer tc.wg.Done()
	for {
		select {
		case <-tc.ctx.Done():
			return
		default:
		}

		next, err := tc.currentOrGenesis()
		if err != nil {
			tc.logger.Error("failed to get current tick", "error", err)
			if !tc.sleep(100 * time.Millisecond) {
				return
			}
			continue
		}
		nextTime, err := tc.provider.TickToTime(next)
		if err != nil {
			tc.logger.Error(
				"failed to get next tick time",
				"error", err,
				"tick", next,
			)
			if !tc.sleep(100 * time.Millisecond) {
				return
			}
			continue
		}
		if !tc.sleep(nextTime.Sub(tc.nowFunc())) {
			return
		}

		actualNow := tc.nowFunc()
		actualTick, err := tc.provider.TimeToTick(actualNow)
		if err != nil {
			tc.logger.Error("failed to verify tick after wake", "error", err)
			continue
		}
		if drift := actualNow.Sub(nextTime); drift > tc.config.ClockTolerance {
			tc.logger.Warn(
				"tick clock drift detected",
				"expected_tick", next,
				"actual_tick", actualTick,
				"drift", drift,
			)
			if tc.driftCount != nil {
				tc.driftCount.Inc()
			}
		}
		tickStart, err := tc.provider.TickToTime(actualTick)
		if err != nil {
			tickStart = actualNow
		}
		tc.emitTick(Tick{Number: actualTick, Start: tickStart})
	}
}

// sleep waits for d and reports false if the clock was stopped meanwhile
func (tc *TickClock) sleep(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-tc.ctx.Done():
			return false
		default:
			return true
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-tc.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (tc *TickClock) emitTick(tick Tick) {
	if tc.tickGauge != nil {
		tc.tickGauge.Set(float64(tick.Number))
	}
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	for _, ch := range tc.subscribers {
		select {
		case ch <- tick:
		default:
			tc.logger.Debug(
				"tick dropped for slow subscriber",
				"tick", tick.Number,
			)
		}
	}
}

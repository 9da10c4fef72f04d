package heartbeat

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const DefaultInterval = time.Second

// Loop is a counter that a single goroutine increments once per interval.
// Each tick logs the current count at debug, info, warn and error.
type Loop struct {
	interval time.Duration
	log      *zap.Logger
	onTick   func(count int64)

	count atomic.Int64

	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewLoop returns a stopped loop. onTick, when set, runs on the loop goroutine
// with the count logged for that tick.
func NewLoop(interval time.Duration, log *zap.Logger, onTick func(count int64)) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		interval: interval,
		log:      log,
		onTick:   onTick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the goroutine. Calling it again, or after Stop, does nothing.
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		go l.run()
	})
}

// Stop asks the goroutine to exit and waits until it has.
// A stopped loop never resumes.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	// never started: there is nothing to join
	l.startOnce.Do(func() { close(l.done) })
	<-l.done
}

// Count is the number of ticks completed so far.
func (l *Loop) Count() int64 {
	return l.count.Load()
}

// Interval is the wait between ticks after defaults are applied.
func (l *Loop) Interval() time.Duration { return l.interval }

func (l *Loop) run() {
	defer close(l.done)

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		n := l.count.Load()
		fields := []zap.Field{zap.Int64("count", n)}
		l.log.Debug("heartbeat", fields...)
		l.log.Info("heartbeat", fields...)
		l.log.Warn("heartbeat", fields...)
		l.log.Error("heartbeat", fields...)
		if l.onTick != nil {
			l.onTick(n)
		}
		l.count.Add(1)

		timer.Reset(l.interval)
		select {
		case <-l.stop:
			return
		case <-timer.C:
		}
	}
}

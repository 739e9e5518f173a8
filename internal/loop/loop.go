// Package loop runs the frame loop that owns the controller system.
//
// Every tick resolves the player slots, feeds the remap capture, advances
// the running game and publishes the resolved states. Anything else that
// needs the system, such as a settings change, is submitted with Do and runs
// on the loop goroutine between two ticks.
package loop

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/action"
	"github.com/soar/retrocouch/internal/controller"
	"github.com/soar/retrocouch/internal/game"
	"github.com/soar/retrocouch/internal/remap"
)

// DefaultRate is the tick rate used when none is configured.
const DefaultRate = 60

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("frame loop is not running")

type request struct {
	fn   func() error
	done chan error
}

// Loop drives a controller.System at a fixed rate.
type Loop struct {
	logger   golog.Logger
	clock    clock.Clock
	interval time.Duration

	system   *controller.System
	capturer *remap.Capturer
	host     *game.Host

	requests chan request
	states   chan []action.State
	stopped  chan struct{}
	ticks    uint64
}

// New returns a loop ticking rate times per second on clk. host may be nil.
func New(logger golog.Logger, clk clock.Clock, rate int, system *controller.System,
	capturer *remap.Capturer, host *game.Host,
) *Loop {
	if rate <= 0 {
		rate = DefaultRate
	}
	if clk == nil {
		clk = clock.New()
	}
	if capturer == nil {
		capturer = remap.NewCapturer()
	}
	return &Loop{
		logger:   logger,
		clock:    clk,
		interval: time.Second / time.Duration(rate),
		system:   system,
		capturer: capturer,
		host:     host,
		requests: make(chan request),
		states:   make(chan []action.State, 1),
		stopped:  make(chan struct{}),
	}
}

// States delivers the resolved states of every slot after each tick. Only
// the latest frame is kept when the reader falls behind.
func (l *Loop) States() <-chan []action.State {
	return l.states
}

// Capturer returns the remap capturer fed by the loop.
func (l *Loop) Capturer() *remap.Capturer {
	return l.capturer
}

// Interval returns the time between two ticks.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Run ticks until ctx is done. It must be called once.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)

	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	l.logger.Infof("Frame loop running at %v per tick", l.interval)
	for {
		select {
		case <-ctx.Done():
			l.capturer.Cancel()
			l.logger.Debugf("Frame loop stopped after %d ticks", l.ticks)
			return
		case req := <-l.requests:
			req.done <- req.fn()
		case <-ticker.C:
			l.tick()
		}
	}
}

func (l *Loop) tick() {
	l.ticks++
	l.system.Update()
	if l.capturer.Active() {
		l.capturer.Observe(l.system.KeysDown(), l.system.Gamepads())
	}
	if l.host != nil {
		l.host.Frame()
	}
	l.publish(l.system.ActionStates())
}

func (l *Loop) publish(states []action.State) {
	select {
	case l.states <- states:
		return
	default:
	}
	// drop the stale frame
	select {
	case <-l.states:
	default:
	}
	select {
	case l.states <- states:
	default:
	}
}

// Do runs fn on the loop goroutine and returns its error. It gives up when
// ctx is done or the loop has exited; fn may still run in the first case.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case l.requests <- req:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package tracker decides when a lesson's watch progress is saved and when the lesson counts as completed.
//
// A Tracker owns its State exclusively. Every input (samples, pause, end, cadence ticks, persist
// results) is queued to a single goroutine, so transitions happen one at a time in arrival order.
// Overlapping saves are prevented by a queue of one: at most one request is in flight, and triggers
// arriving meanwhile merge into a single pending slot holding the highest percentage.
//
// Save results travel on their own channel. Once Close has begun they are never applied, so no hook
// fires during or after teardown. Settle lets the owner wait for the last request without a second one.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/coursecast/coursecast/log"
	"github.com/coursecast/coursecast/player"
	"github.com/coursecast/coursecast/util"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 15 * time.Second
	inboxSize       = 64
)

// ErrClosed is returned when attaching to a tracker that was already torn down.
var ErrClosed = errors.New("tracker closed")

// Persister writes progress to the backend and reports whether the backend now considers the lesson completed.
type Persister interface {
	Persist(ctx context.Context, u Update) (completed bool, err error)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, u Update) (bool, error)

func (f PersisterFunc) Persist(ctx context.Context, u Update) (bool, error) {
	return f(ctx, u)
}

// Options configures a Tracker. Hooks run on the tracker goroutine and must not block.
type Options struct {
	// Interval between cadence saves. Zero means DefaultInterval.
	Interval time.Duration

	// Timeout bounds each save. Zero means DefaultTimeout.
	Timeout time.Duration

	// ResumePercentage is the progress the backend already holds.
	ResumePercentage int

	// AlreadyCompleted suppresses OnCompleted for lessons finished in an earlier session.
	AlreadyCompleted bool

	// OnCompleted fires at most once, when the backend confirms completion.
	OnCompleted func()

	// OnPersistError receives failed saves. They are otherwise only logged.
	OnPersistError func(error)

	// OnChange receives a copy of the state after each transition.
	OnChange func(State)
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) ticker {
	return timeTicker{time.NewTicker(d)}
}

// Tracker is the progress state machine of one viewing session.
type Tracker struct {
	persister Persister
	opts      Options
	logger    *logrus.Entry
	newTicker func(time.Duration) ticker

	inbox   chan func()
	results chan func()
	done    chan struct{}
	stopped chan struct{}

	// Owned by the loop goroutine; readable by others only after stopped is closed.
	state        State
	duration     float64
	pending      int
	pendingForce bool
	notified     bool
	closing      bool
	sub          player.Subscription
	tick         ticker
	flight       *flight
}

// flight is the save currently or most recently sent. Its outcome fields are written
// before settled is closed.
type flight struct {
	update    Update
	prev      int
	settled   chan struct{}
	completed bool
	err       error
	at        time.Time
}

// New creates a tracker in the Idle phase and starts its goroutine.
func New(lessonID int, persister Persister, opts Options) *Tracker {
	t := newTracker(lessonID, persister, opts, newTimeTicker)
	go t.run()
	return t
}

func newTracker(lessonID int, persister Persister, opts Options, newTicker func(time.Duration) ticker) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	resume := util.Clamp(opts.ResumePercentage, 0, 100)
	return &Tracker{
		persister: persister,
		opts:      opts,
		logger:    log.With(log.Fields{"lesson": lessonID}),
		newTicker: newTicker,
		inbox:     make(chan func(), inboxSize),
		results:   make(chan func()),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		pending:   -1,
		notified:  opts.AlreadyCompleted,
		state: State{
			Phase:                   Idle,
			LastPersistedPercentage: resume,
			HighWaterPercentage:     resume,
			SavedPercentage:         resume,
			Pending:                 mo.None[int](),
		},
	}
}

// Attach subscribes to obs and moves the tracker to Active. The subscription is cancelled on Close.
func (t *Tracker) Attach(obs player.Observer) error {
	sub, err := obs.Subscribe(player.Callbacks{
		OnSample: t.Sample,
		OnPause:  t.Pause,
		OnEnded:  t.Ended,
	})
	if err != nil {
		return err
	}

	ack := make(chan struct{})
	if t.post(func() {
		t.sub = sub
		t.activate()
		close(ack)
	}) {
		select {
		case <-ack:
			return nil
		case <-t.stopped:
		}
		select {
		case <-ack:
			// Attached before teardown, which cancelled it.
			return ErrClosed
		default:
		}
	}

	sub.Cancel()
	return ErrClosed
}

// Sample feeds one playback observation.
func (t *Tracker) Sample(s player.Sample) {
	t.post(func() { t.onSample(s) })
}

// Pause reports a pause action.
func (t *Tracker) Pause() {
	t.post(t.onPause)
}

// Ended reports that playback reached its end.
func (t *Tracker) Ended() {
	t.post(t.onEnded)
}

// Snapshot returns a copy of the current state. After Close it returns the final state.
func (t *Tracker) Snapshot() State {
	reply := make(chan State, 1)
	if t.post(func() { reply <- t.copyState() }) {
		select {
		case s := <-reply:
			return s
		case <-t.stopped:
		}
	}
	<-t.stopped
	return t.copyState()
}

// Close tears the tracker down: the subscription is cancelled and the ticker disarmed.
// Inputs already queued are applied without starting new saves.
// A save in flight finishes in the background and its result is discarded; use Settle to wait for it.
// Close is idempotent and returns the final state.
func (t *Tracker) Close() State {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	<-t.stopped
	return t.copyState()
}

// Settle closes the tracker and waits, bounded by ctx, for a save still in flight. The returned state
// includes that save's outcome. Nothing is sent and no hook fires. InFlight stays set when ctx ends first.
func (t *Tracker) Settle(ctx context.Context) State {
	final := t.Close()
	f := t.flight
	if !final.InFlight || f == nil {
		return final
	}

	select {
	case <-f.settled:
	case <-ctx.Done():
		return final
	}

	final.InFlight = false
	if f.err != nil {
		final.LastPersistedPercentage = f.prev
		final.Failures++
		return final
	}

	final.SavedPercentage = max(final.SavedPercentage, f.update.Percentage)
	final.LastPersistAt = f.at
	final.Failures = 0
	if f.completed {
		final.Confirmed = true
		final.IsCompleted = true
		final.Phase = Completed
	}
	return final
}

// post queues fn for the loop. It reports false once the tracker is closed.
func (t *Tracker) post(fn func()) bool {
	select {
	case <-t.done:
		return false
	default:
	}

	select {
	case t.inbox <- fn:
		return true
	case <-t.done:
		return false
	}
}

func (t *Tracker) run() {
	defer close(t.stopped)
	for {
		select {
		case <-t.done:
			t.drain()
			t.teardown()
			return
		case fn := <-t.inbox:
			fn()
		case apply := <-t.results:
			// done and a result may be ready together; teardown wins.
			select {
			case <-t.done:
			default:
				apply()
			}
		case <-t.tickC():
			t.onTick()
		}
	}
}

func (t *Tracker) tickC() <-chan time.Time {
	if t.tick == nil {
		return nil
	}
	return t.tick.C()
}

// drain applies inputs that were queued before Close. They can no longer start a save.
// Save results are not drained.
func (t *Tracker) drain() {
	t.closing = true
	for {
		select {
		case fn := <-t.inbox:
			fn()
		default:
			return
		}
	}
}

func (t *Tracker) teardown() {
	if t.tick != nil {
		t.tick.Stop()
		t.tick = nil
	}
	if t.sub != nil {
		t.sub.Cancel()
	}
	t.logger.Debugf("tracker closed at %d%% (saved %d%%)", t.state.HighWaterPercentage, t.state.SavedPercentage)
}

// activate enters Active and arms the cadence ticker the first time.
func (t *Tracker) activate() {
	if t.state.Phase == Completed {
		return
	}
	t.state.Phase = Active
	if t.tick == nil {
		t.tick = t.newTicker(t.opts.Interval)
	}
	t.changed()
}

func (t *Tracker) onSample(s player.Sample) {
	if !s.Ready() || t.state.Phase == Completed {
		return
	}

	t.state.Position, t.duration = s.Position, s.Duration
	if p := s.Percentage(); p > t.state.HighWaterPercentage {
		t.state.HighWaterPercentage = p
	}

	if t.state.Phase != Active {
		t.activate()
		return
	}
	t.changed()
}

func (t *Tracker) onPause() {
	if t.state.Phase == Completed {
		return
	}
	t.state.Phase = Paused
	t.changed()
	t.persist(t.state.HighWaterPercentage, false)
}

func (t *Tracker) onEnded() {
	if t.state.Confirmed {
		return
	}
	t.state.HighWaterPercentage = 100
	t.state.Phase = Completed
	t.state.IsCompleted = true
	t.changed()
	t.persist(100, true)
}

func (t *Tracker) onTick() {
	switch t.state.Phase {
	case Active, Paused, Completed:
		t.persist(t.state.HighWaterPercentage, false)
	}
}

// persist sends pct now, queues it behind the request in flight, or drops it when it carries nothing new.
// force is used for the end of playback, which is sent even when 100 was already sent.
func (t *Tracker) persist(pct int, force bool) {
	if t.state.Confirmed || t.closing {
		return
	}
	if !force && pct <= t.state.LastPersistedPercentage {
		return
	}

	if t.state.InFlight {
		if pct > t.pending {
			t.pending = pct
		}
		t.pendingForce = t.pendingForce || force
		t.changed()
		return
	}

	t.send(pct)
}

func (t *Tracker) send(pct int) {
	prev := t.state.LastPersistedPercentage
	u := Update{Percentage: pct, WatchedSeconds: t.watchedSeconds(pct)}

	t.state.LastPersistedPercentage = pct
	t.state.InFlight = true
	t.changed()

	t.logger.Debugf("saving progress %d%% at %.0fs", u.Percentage, u.WatchedSeconds)

	f := &flight{update: u, prev: prev, settled: make(chan struct{})}
	t.flight = f

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.opts.Timeout)
		defer cancel()

		f.completed, f.err = t.persister.Persist(ctx, u)
		f.at = time.Now()
		close(f.settled)

		select {
		case t.results <- func() { t.resolve(u, prev, f.completed, f.err) }:
		case <-t.done:
			t.logger.Debugf("discarding save result for %d%%: tracker closed", u.Percentage)
		}
	}()
}

func (t *Tracker) resolve(u Update, prev int, completed bool, err error) {
	t.state.InFlight = false

	if err != nil {
		t.state.LastPersistedPercentage = prev
		t.state.Failures++
		t.logger.Warnf("saving progress %d%% failed: %v", u.Percentage, err)
		if t.opts.OnPersistError != nil {
			t.opts.OnPersistError(err)
		}
	} else {
		t.state.SavedPercentage = max(t.state.SavedPercentage, u.Percentage)
		t.state.LastPersistAt = time.Now()
		t.state.Failures = 0
		if completed {
			t.complete()
		}
	}

	t.changed()
	t.flushPending()
}

func (t *Tracker) complete() {
	t.state.Confirmed = true
	t.state.IsCompleted = true
	t.state.Phase = Completed
	t.pending, t.pendingForce = -1, false

	if t.notified {
		return
	}
	t.notified = true
	t.logger.Info("lesson completed")
	if t.opts.OnCompleted != nil {
		t.opts.OnCompleted()
	}
}

// flushPending sends the queued trigger, refreshed with the latest high-water mark.
func (t *Tracker) flushPending() {
	if t.pending < 0 {
		return
	}

	pct, force := t.pending, t.pendingForce
	t.pending, t.pendingForce = -1, false
	if t.state.HighWaterPercentage > pct {
		pct = t.state.HighWaterPercentage
	}
	t.persist(pct, force)
}

// watchedSeconds is the position reported with a save; the end of playback reports the full duration.
func (t *Tracker) watchedSeconds(pct int) float64 {
	if pct == 100 && t.state.Phase == Completed && t.duration > 0 {
		return t.duration
	}
	return t.state.Position
}

func (t *Tracker) copyState() State {
	s := t.state
	if t.pending >= 0 {
		s.Pending = mo.Some(t.pending)
	} else {
		s.Pending = mo.None[int]()
	}
	return s
}

func (t *Tracker) changed() {
	if t.opts.OnChange != nil {
		t.opts.OnChange(t.copyState())
	}
}

package tracker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coursecast/coursecast/player"
	. "github.com/smartystreets/goconvey/convey"
)

const waitTimeout = 2 * time.Second

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type result struct {
	completed bool
	err       error
}

type call struct {
	update Update
	reply  chan result
}

type fakePersister struct {
	calls chan call
}

func newFakePersister() *fakePersister {
	return &fakePersister{calls: make(chan call, 16)}
}

func (p *fakePersister) Persist(ctx context.Context, u Update) (bool, error) {
	c := call{update: u, reply: make(chan result, 1)}
	p.calls <- c
	select {
	case r := <-c.reply:
		return r.completed, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (p *fakePersister) next() (call, bool) {
	select {
	case c := <-p.calls:
		return c, true
	case <-time.After(waitTimeout):
		return call{}, false
	}
}

func (p *fakePersister) idle() bool {
	select {
	case <-p.calls:
		return false
	case <-time.After(50 * time.Millisecond):
		return true
	}
}

func start(p Persister, opts Options) (*Tracker, *fakeTicker) {
	tk := &fakeTicker{c: make(chan time.Time)}
	tr := newTracker(1, p, opts, func(time.Duration) ticker { return tk })
	go tr.run()
	return tr, tk
}

// fire delivers one cadence tick after every input already queued has been applied.
func fire(tr *Tracker, tk *fakeTicker) bool {
	tr.Snapshot()
	select {
	case tk.c <- time.Now():
		tr.Snapshot()
		return true
	case <-time.After(waitTimeout):
		return false
	}
}

func waitFor(tr *Tracker, cond func(State) bool) State {
	deadline := time.Now().Add(waitTimeout)
	for {
		s := tr.Snapshot()
		if cond(s) || time.Now().After(deadline) {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func settled(s State) bool { return !s.InFlight }

func attach(tr *Tracker) *player.ScriptedSubscription {
	obs := &player.Scripted{}
	So(tr.Attach(obs), ShouldBeNil)
	return obs.Last()
}

func TestTrackerSamples(t *testing.T) {
	Convey("Given an attached tracker", t, func() {
		p := newFakePersister()
		tr, tk := start(p, Options{})
		defer tr.Close()
		sub := attach(tr)

		Convey("It becomes active", func() {
			So(tr.Snapshot().Phase, ShouldEqual, Active)
		})

		Convey("Backward seeks never lower the high-water mark", func() {
			sub.Emit(player.Percent(50), player.Percent(20))
			s := tr.Snapshot()
			So(s.HighWaterPercentage, ShouldEqual, 50)
		})

		Convey("Samples alone never save", func() {
			sub.Emit(player.Percent(10), player.Percent(30), player.Percent(60))
			tr.Snapshot()
			So(p.idle(), ShouldBeTrue)
		})

		Convey("Samples without a duration are ignored", func() {
			sub.Emit(player.At(40, 0))
			So(tr.Snapshot().HighWaterPercentage, ShouldEqual, 0)
		})

		Convey("A tick with nothing new is a no-op", func() {
			So(fire(tr, tk), ShouldBeTrue)
			So(p.idle(), ShouldBeTrue)
			So(tr.Snapshot().InFlight, ShouldBeFalse)
		})

		Convey("A tick saves the high-water mark", func() {
			sub.Emit(player.At(45, 90))
			So(fire(tr, tk), ShouldBeTrue)

			c, ok := p.next()
			So(ok, ShouldBeTrue)
			So(c.update.Percentage, ShouldEqual, 50)
			So(c.update.WatchedSeconds, ShouldEqual, 45)
			So(tr.Snapshot().LastPersistedPercentage, ShouldEqual, 50)

			c.reply <- result{}
			s := waitFor(tr, settled)
			So(s.SavedPercentage, ShouldEqual, 50)
			So(s.LastPersistAt.IsZero(), ShouldBeFalse)
			So(s.Unsaved(), ShouldBeFalse)
		})
	})
}

func TestTrackerPause(t *testing.T) {
	Convey("Given a playing lesson", t, func() {
		p := newFakePersister()
		tr, tk := start(p, Options{})
		defer tr.Close()
		sub := attach(tr)

		Convey("A pause after a backward seek saves the high-water mark", func() {
			sub.Emit(player.Percent(50), player.Percent(20), player.Paused)

			c, ok := p.next()
			So(ok, ShouldBeTrue)
			So(c.update.Percentage, ShouldEqual, 50)
			So(tr.Snapshot().Phase, ShouldEqual, Paused)
			c.reply <- result{}
		})

		Convey("A sample after a pause resumes", func() {
			sub.Emit(player.Percent(10), player.Paused)
			c, _ := p.next()
			c.reply <- result{}
			waitFor(tr, settled)

			sub.Emit(player.Resumed, player.Percent(11))
			So(tr.Snapshot().Phase, ShouldEqual, Active)
		})

		Convey("Triggers during a request coalesce into one follow-up", func() {
			sub.Emit(player.Percent(40))
			So(fire(tr, tk), ShouldBeTrue)
			first, ok := p.next()
			So(ok, ShouldBeTrue)
			So(first.update.Percentage, ShouldEqual, 40)

			sub.Emit(player.Percent(60), player.Paused)
			sub.Emit(player.Resumed, player.Percent(65))
			So(fire(tr, tk), ShouldBeTrue)

			s := tr.Snapshot()
			So(s.InFlight, ShouldBeTrue)
			So(s.Pending.OrEmpty(), ShouldEqual, 65)

			first.reply <- result{}
			second, ok := p.next()
			So(ok, ShouldBeTrue)
			So(second.update.Percentage, ShouldEqual, 65)
			second.reply <- result{}

			s = waitFor(tr, settled)
			So(s.SavedPercentage, ShouldEqual, 65)
			So(s.Pending.IsAbsent(), ShouldBeTrue)
			So(p.idle(), ShouldBeTrue)
		})
	})
}

func TestTrackerFailures(t *testing.T) {
	Convey("Given a tracker whose backend fails once", t, func() {
		p := newFakePersister()
		var errs []error
		tr, tk := start(p, Options{
			ResumePercentage: 40,
			OnPersistError:   func(err error) { errs = append(errs, err) },
		})
		defer tr.Close()
		sub := attach(tr)

		sub.Emit(player.Percent(65))
		So(fire(tr, tk), ShouldBeTrue)
		c, ok := p.next()
		So(ok, ShouldBeTrue)
		So(c.update.Percentage, ShouldEqual, 65)

		c.reply <- result{err: errors.New("connection reset")}
		s := waitFor(tr, settled)

		Convey("The optimistic value is rolled back", func() {
			So(s.LastPersistedPercentage, ShouldEqual, 40)
			So(s.SavedPercentage, ShouldEqual, 40)
			So(s.Failures, ShouldEqual, 1)
			So(s.Unsaved(), ShouldBeTrue)
			So(errs, ShouldHaveLength, 1)
		})

		Convey("The next tick sends the same value again", func() {
			So(fire(tr, tk), ShouldBeTrue)
			retry, ok := p.next()
			So(ok, ShouldBeTrue)
			So(retry.update.Percentage, ShouldEqual, 65)

			retry.reply <- result{}
			s := waitFor(tr, settled)
			So(s.SavedPercentage, ShouldEqual, 65)
			So(s.Failures, ShouldEqual, 0)
		})
	})
}

func TestTrackerCompletion(t *testing.T) {
	Convey("Given a tracker counting completion notifications", t, func() {
		p := newFakePersister()
		var notified atomic.Int32
		opts := Options{OnCompleted: func() { notified.Add(1) }}

		Convey("The end of playback forces 100 even from 97", func() {
			tr, _ := start(p, opts)
			defer tr.Close()
			sub := attach(tr)

			sub.Emit(player.Percent(97), player.Ended)
			c, ok := p.next()
			So(ok, ShouldBeTrue)
			So(c.update.Percentage, ShouldEqual, 100)
			So(c.update.WatchedSeconds, ShouldEqual, 100)

			s := tr.Snapshot()
			So(s.Phase, ShouldEqual, Completed)
			So(s.IsCompleted, ShouldBeTrue)
			So(s.Confirmed, ShouldBeFalse)

			c.reply <- result{completed: true}
			s = waitFor(tr, func(s State) bool { return s.Confirmed })
			So(s.Confirmed, ShouldBeTrue)
			So(notified.Load(), ShouldEqual, 1)

			Convey("Nothing is sent after confirmation", func() {
				sub.Emit(player.Percent(99), player.Ended)
				tr.Snapshot()
				So(p.idle(), ShouldBeTrue)
				So(notified.Load(), ShouldEqual, 1)
			})
		})

		Convey("A resumed lesson completes once the backend says so", func() {
			opts.ResumePercentage = 30
			tr, tk := start(p, opts)
			defer tr.Close()
			sub := attach(tr)

			So(tr.Snapshot().HighWaterPercentage, ShouldEqual, 30)
			sub.Emit(player.Percent(31), player.Percent(60), player.Percent(82))
			So(fire(tr, tk), ShouldBeTrue)

			c, ok := p.next()
			So(ok, ShouldBeTrue)
			So(c.update.Percentage, ShouldEqual, 82)
			c.reply <- result{completed: true}

			s := waitFor(tr, func(s State) bool { return s.Confirmed })
			So(s.IsCompleted, ShouldBeTrue)
			So(s.Phase, ShouldEqual, Completed)
			So(notified.Load(), ShouldEqual, 1)

			sub.Emit(player.Percent(90))
			So(fire(tr, tk), ShouldBeTrue)
			So(p.idle(), ShouldBeTrue)
			So(tr.Snapshot().HighWaterPercentage, ShouldEqual, 82)
		})

		Convey("Saves that do not complete keep the lesson open", func() {
			tr, tk := start(p, opts)
			defer tr.Close()
			sub := attach(tr)

			sub.Emit(player.Percent(50))
			So(fire(tr, tk), ShouldBeTrue)
			c, _ := p.next()
			c.reply <- result{completed: false}

			s := waitFor(tr, settled)
			So(s.IsCompleted, ShouldBeFalse)
			So(s.Phase, ShouldEqual, Active)
			So(notified.Load(), ShouldEqual, 0)
		})

		Convey("Lessons completed earlier are not announced again", func() {
			opts.AlreadyCompleted = true
			opts.ResumePercentage = 100
			tr, _ := start(p, opts)
			defer tr.Close()
			sub := attach(tr)

			sub.Emit(player.Percent(100), player.Ended)
			c, ok := p.next()
			So(ok, ShouldBeTrue)
			c.reply <- result{completed: true}

			waitFor(tr, func(s State) bool { return s.Confirmed })
			So(notified.Load(), ShouldEqual, 0)
		})
	})
}

func TestTrackerClose(t *testing.T) {
	Convey("Given a tracker with a request in flight", t, func() {
		p := newFakePersister()
		var notified atomic.Int32
		tr, tk := start(p, Options{OnCompleted: func() { notified.Add(1) }})
		obs := &player.Scripted{}
		So(tr.Attach(obs), ShouldBeNil)

		obs.Last().Emit(player.Percent(70))
		So(fire(tr, tk), ShouldBeTrue)
		c, ok := p.next()
		So(ok, ShouldBeTrue)

		final := tr.Close()

		Convey("Teardown stops the ticker and cancels the subscription", func() {
			So(tk.stopped.Load(), ShouldBeTrue)
			So(obs.Last().Cancelled(), ShouldBeTrue)
			So(final.InFlight, ShouldBeTrue)
			So(final.Unsaved(), ShouldBeTrue)
		})

		Convey("The late result is discarded", func() {
			c.reply <- result{completed: true}
			time.Sleep(50 * time.Millisecond)
			s := tr.Snapshot()
			So(s.SavedPercentage, ShouldEqual, 0)
			So(s.Confirmed, ShouldBeFalse)
			So(notified.Load(), ShouldEqual, 0)
		})

		Convey("Close is idempotent", func() {
			So(tr.Close().HighWaterPercentage, ShouldEqual, 70)
		})

		Convey("Attaching afterwards cancels the new subscription", func() {
			late := &player.Scripted{}
			So(tr.Attach(late), ShouldEqual, ErrClosed)
			So(late.Last().Cancelled(), ShouldBeTrue)
		})
	})

	Convey("Given a request still in flight at teardown", t, func() {
		p := newFakePersister()
		var notified atomic.Int32
		tr, tk := start(p, Options{ResumePercentage: 20, OnCompleted: func() { notified.Add(1) }})
		sub := attach(tr)

		sub.Emit(player.Percent(70))
		So(fire(tr, tk), ShouldBeTrue)
		c, ok := p.next()
		So(ok, ShouldBeTrue)

		Convey("Settle waits for it and reports its outcome", func() {
			go func() {
				time.Sleep(20 * time.Millisecond)
				c.reply <- result{completed: true}
			}()

			final := tr.Settle(context.Background())
			So(final.InFlight, ShouldBeFalse)
			So(final.SavedPercentage, ShouldEqual, 70)
			So(final.Confirmed, ShouldBeTrue)
			So(final.Unsaved(), ShouldBeFalse)
			So(notified.Load(), ShouldEqual, 0)
			So(p.idle(), ShouldBeTrue)
		})

		Convey("Settle rolls back a failed request", func() {
			c.reply <- result{err: errors.New("bad gateway")}

			final := tr.Settle(context.Background())
			So(final.InFlight, ShouldBeFalse)
			So(final.LastPersistedPercentage, ShouldEqual, 20)
			So(final.Failures, ShouldEqual, 1)
			So(final.Unsaved(), ShouldBeTrue)
		})

		Convey("Settle gives up when its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			final := tr.Settle(ctx)
			So(final.InFlight, ShouldBeTrue)
			c.reply <- result{}
		})
	})

	Convey("Given results that race teardown", t, func() {
		for i := 0; i < 50; i++ {
			p := newFakePersister()
			var notified atomic.Int32
			tr, tk := start(p, Options{OnCompleted: func() { notified.Add(1) }})
			sub := attach(tr)

			sub.Emit(player.Percent(90))
			So(fire(tr, tk), ShouldBeTrue)
			c, ok := p.next()
			So(ok, ShouldBeTrue)

			go func() { c.reply <- result{completed: true} }()
			final := tr.Close()
			seen := notified.Load()

			time.Sleep(5 * time.Millisecond)
			So(notified.Load(), ShouldEqual, seen)
			So(final.Confirmed, ShouldEqual, seen == 1)
		}
	})

	Convey("Given an observer that cannot start", t, func() {
		tr, _ := start(newFakePersister(), Options{})
		defer tr.Close()

		err := tr.Attach(&player.Scripted{Err: errors.New("no such video")})
		So(err, ShouldNotBeNil)
		So(tr.Snapshot().Phase, ShouldEqual, Idle)
	})
}

package player

import "sync"

// EventKind identifies a scripted playback event.
type EventKind int

const (
	EventSample EventKind = iota
	EventPause
	EventResume
	EventEnded
)

// Event is one step of a scripted playback.
type Event struct {
	Kind   EventKind
	Sample Sample
}

// At is a sample at position pos of a video lasting dur seconds.
func At(pos, dur float64) Event {
	return Event{Kind: EventSample, Sample: Sample{Position: pos, Duration: dur}}
}

// Percent is a sample at p percent of a 100 second video.
func Percent(p float64) Event {
	return At(p, 100)
}

// Paused, Resumed and Ended are the discrete scripted events.
var (
	Paused  = Event{Kind: EventPause}
	Resumed = Event{Kind: EventResume}
	Ended   = Event{Kind: EventEnded}
)

// Scripted is an Observer driven by the caller instead of a real player.
type Scripted struct {
	// Err, when set, makes Subscribe fail with an *InitError.
	Err error

	mu   sync.Mutex
	subs []*ScriptedSubscription
}

// Subscribe records a new subscription; events are delivered through Emit.
func (s *Scripted) Subscribe(cb Callbacks) (Subscription, error) {
	if s.Err != nil {
		return nil, &InitError{Video: "scripted", Err: s.Err}
	}

	sub := &ScriptedSubscription{relay: newRelay(cb), done: make(chan struct{})}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
	return sub, nil
}

// Subscriptions returns how many subscriptions were created.
func (s *Scripted) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Last returns the most recent subscription, or nil.
func (s *Scripted) Last() *ScriptedSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) == 0 {
		return nil
	}
	return s.subs[len(s.subs)-1]
}

// ScriptedSubscription delivers events with the same rules as a real provider.
type ScriptedSubscription struct {
	relay     *relay
	done      chan struct{}
	doneOnce  sync.Once
	cancelled bool
	mu        sync.Mutex
}

// Emit delivers events in order.
func (s *ScriptedSubscription) Emit(events ...Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventSample:
			s.relay.sample(ev.Sample)
		case EventPause:
			s.relay.pause()
		case EventResume:
			s.relay.resume()
		case EventEnded:
			s.relay.end()
		}
	}
}

// Finish simulates the player closing on its own.
func (s *ScriptedSubscription) Finish() {
	s.doneOnce.Do(func() { close(s.done) })
}

// Delivered returns how many samples reached the callbacks.
func (s *ScriptedSubscription) Delivered() int {
	return s.relay.delivered()
}

// Cancelled reports whether Cancel was called.
func (s *ScriptedSubscription) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *ScriptedSubscription) Cancel() {
	s.relay.cancel()
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
}

func (s *ScriptedSubscription) Done() <-chan struct{} {
	return s.done
}

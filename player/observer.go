package player

import (
	"errors"
	"sync"

	"github.com/coursecast/coursecast/log"
)

// MPVObserver plays a video in mpv and observes it.
type MPVObserver struct {
	Binary  string
	Target  string
	Title   string
	StartAt float64
}

// Subscribe launches mpv and starts translating its events.
func (o *MPVObserver) Subscribe(cb Callbacks) (Subscription, error) {
	if o.Target == "" {
		return nil, &InitError{Video: o.Target, Err: errors.New("no video reference")}
	}

	m := NewMPV(o.Binary)
	if err := m.Start(o.Target, o.Title, o.StartAt); err != nil {
		return nil, &InitError{Video: o.Target, Err: err}
	}

	r := newRelay(cb)
	tr := &translator{relay: r}
	listener := NewEventListener(m.Socket(), tr.handle)
	if err := listener.Start(); err != nil {
		_ = m.Close()
		return nil, &InitError{Video: o.Target, Err: err}
	}

	log.Infof("mpv started for %s on %s", o.Target, m.Socket())
	return &mpvSubscription{relay: r, mpv: m, listener: listener}, nil
}

type mpvSubscription struct {
	relay    *relay
	mpv      *MPV
	listener *EventListener
	once     sync.Once
}

func (s *mpvSubscription) Cancel() {
	s.once.Do(func() {
		s.relay.cancel()
		s.listener.Stop()
		_ = s.mpv.Close()
	})
}

func (s *mpvSubscription) Done() <-chan struct{} {
	return s.mpv.Wait()
}

// translator maps mpv property changes onto the relay. It is only used from the listener's read loop.
type translator struct {
	relay    *relay
	duration float64
	eof      bool
}

func (t *translator) handle(name string, data interface{}) {
	switch name {
	case "duration":
		if d, ok := data.(float64); ok {
			t.duration = d
		}
	case "time-pos":
		if pos, ok := data.(float64); ok {
			t.relay.sample(Sample{Position: pos, Duration: t.duration})
		}
	case "pause":
		paused, _ := data.(bool)
		switch {
		case paused && !t.eof:
			t.relay.pause()
		case !paused:
			t.relay.resume()
		}
	case "eof-reached":
		if reached, _ := data.(bool); reached {
			t.ended()
		}
	case "end-file":
		event, _ := data.(map[string]interface{})
		if reason, _ := event["reason"].(string); reason == "eof" {
			t.ended()
		}
	}
}

// ended reports the end with a final full-length sample first, since providers often stop short of the duration.
func (t *translator) ended() {
	t.eof = true
	if t.duration > 0 {
		t.relay.sample(Sample{Position: t.duration, Duration: t.duration})
	}
	t.relay.end()
}

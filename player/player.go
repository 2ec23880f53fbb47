// Package player turns a video player's events into a uniform stream of progress samples.
// The tracker only ever sees the Observer contract defined here; mpv is the concrete provider.
package player

import (
	"fmt"
	"math"

	"github.com/coursecast/coursecast/util"
)

// Sample is one playback position observation.
type Sample struct {
	Position float64
	Duration float64
}

// Ready reports whether the sample carries a usable duration. Samples that are not ready are dropped.
func (s Sample) Ready() bool {
	return s.Duration > 0 && !math.IsInf(s.Duration, 0) && !math.IsNaN(s.Position) && s.Position >= 0
}

// Percentage is floor(100 * position / duration), clamped to [0, 100].
func (s Sample) Percentage() int {
	if !s.Ready() {
		return 0
	}
	return util.Clamp(int(math.Floor(100*s.Position/s.Duration)), 0, 100)
}

// Callbacks receive the translated events. Any of them may be nil.
type Callbacks struct {
	OnSample func(Sample)
	OnPause  func()
	OnEnded  func()
}

// Subscription is a live event stream.
type Subscription interface {
	// Cancel stops the stream. It is idempotent and no callback fires after it returns.
	// It must not be called from inside a callback.
	Cancel()

	// Done is closed when the provider stops on its own, e.g. the player window was closed.
	Done() <-chan struct{}
}

// Observer is a source of playback events.
type Observer interface {
	// Subscribe starts delivering events. It fails fast with *InitError when the provider cannot start,
	// in which case no callback is ever invoked.
	Subscribe(cb Callbacks) (Subscription, error)
}

// InitError reports a provider that failed to start.
type InitError struct {
	Video string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("player init %q: %v", e.Video, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

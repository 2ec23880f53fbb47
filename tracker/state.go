package tracker

import (
	"time"

	"github.com/samber/mo"
)

// Phase is the tracker's position in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Active
	Paused
	Completed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// State is a copy of the tracker's progress record.
type State struct {
	Phase Phase

	// LastPersistedPercentage is the last value sent. It moves ahead optimistically when a request
	// leaves and is rolled back if that request fails.
	LastPersistedPercentage int

	// HighWaterPercentage is the highest percentage seen this session. Backward seeks never lower it.
	HighWaterPercentage int

	// SavedPercentage is the last value the backend acknowledged.
	SavedPercentage int

	// IsCompleted is set by the end of playback or by the backend confirming completion.
	IsCompleted bool

	// Confirmed is set once the backend reports the lesson completed. No persist follows it.
	Confirmed bool

	// Position is the last observed playback position in seconds.
	Position float64

	LastPersistAt time.Time
	InFlight      bool
	Pending       mo.Option[int]
	Failures      int
}

// Unsaved reports whether progress was observed that the backend has not acknowledged.
func (s State) Unsaved() bool {
	return !s.Confirmed && s.HighWaterPercentage > s.SavedPercentage
}

// Update is one progress write.
type Update struct {
	Percentage     int
	WatchedSeconds float64
}

// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Backend API - these keys locate and bound requests to the learning backend.
const (
	APIBaseURL = "api.base_url"
	APITimeout = "api.timeout"
	APIRetries = "api.retries"
)

// Progress Tracking - these keys tune the cadence and completion hint of the lesson progress tracker.
const (
	TrackerInterval             = "tracker.interval"
	TrackerCompletionPercentage = "tracker.completion_percentage"
)

// Media Playback - these keys configure the external video player.
const (
	PlayerBinary = "player.binary"
	PlayerResume = "player.resume"
)

// Offline Outbox - these keys govern the replay of progress updates that could not be delivered.
const (
	OutboxEnable = "outbox.enable"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored = "cli.colored"
)

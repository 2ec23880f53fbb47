// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// App is the canonical application identifier used for filesystem paths and CLI branding.
	App = "coursecast"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is sent with every request to the learning backend.
	UserAgent = App + "/" + Version
)

// runtime.GOOS values that need their own way of launching the browser or player.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
	Android = "android"
)

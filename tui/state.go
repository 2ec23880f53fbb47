// Package tui provides the primary terminal user interface implementation.
package tui

type state int

const (
	idle state = iota
	lessonsState
	loadingState
	playingState
	doneState
	errorState
)

// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"time"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question and answer transcript.
	ViewAsk
	// ViewStatus shows index synchronisation state and store counts.
	ViewStatus
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewStatus:
		return "status"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// AskCompleted carries the router's answer back to the ask view.
type AskCompleted struct {
	Question string
	Answer   *domain.Answer
	Err      error
	Elapsed  time.Duration
}

// StatusLoaded carries index state to the status view. Stats is nil when
// no stats service is wired.
type StatusLoaded struct {
	Sync  domain.SyncStatus
	Stats *domain.IndexStats
	Err   error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

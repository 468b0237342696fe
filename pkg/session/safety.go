package session

import (
	"fmt"

	"github.com/aretw0/liveparams/pkg/domain"
)

// Classify derives the safety state from the active command identifier.
// Anything other than the two sentinels is an interactive tool left running.
func Classify(command string, s domain.Sentinels) domain.SafetyState {
	switch command {
	case s.Idle:
		return domain.SafetyState{Command: command}
	case s.Commit:
		return domain.SafetyState{Busy: true, Cause: domain.CauseTransientCommit, Command: command}
	default:
		return domain.SafetyState{Busy: true, Cause: domain.CauseStickyTool, Command: command}
	}
}

// BusyMessage is the notification shown when a write is blocked.
func BusyMessage(state domain.SafetyState) string {
	if state.Cause == domain.CauseTransientCommit {
		return "The application is busy.\n\nPlease try again."
	}
	return fmt.Sprintf("-- ERROR --\n\nCommand '%s' is active.\n\nClick the Canvas > Press ESC.", state.Command)
}

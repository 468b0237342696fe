package domain

// BusyCause explains why the host is not safe to mutate. It only affects message wording.
type BusyCause string

const (
	// CauseTransientCommit is an auto-save or commit that will finish on its own.
	CauseTransientCommit BusyCause = "transient-commit"
	// CauseStickyTool is an interactive tool the user must leave before editing.
	CauseStickyTool BusyCause = "sticky-tool"
)

// SafetyState is the host interaction state, derived fresh for every inbound action.
type SafetyState struct {
	Busy    bool
	Cause   BusyCause // Empty when idle
	Command string    // Active command identifier reported by the host
}

// Idle reports whether writes are allowed.
func (s SafetyState) Idle() bool {
	return !s.Busy
}

// Sentinels are the host command identifiers that drive classification.
type Sentinels struct {
	// Idle is reported when nothing is in progress.
	Idle string `yaml:"idle_command" json:"idle_command" mapstructure:"idle_command"`
	// Commit is reported while the host auto-saves or commits a transaction.
	Commit string `yaml:"commit_command" json:"commit_command" mapstructure:"commit_command"`
}

// DefaultSentinels returns the identifiers used by the reference CAD host.
func DefaultSentinels() Sentinels {
	return Sentinels{
		Idle:   "SelectCommand",
		Commit: "CommitCommand",
	}
}

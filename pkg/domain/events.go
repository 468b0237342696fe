package domain

import (
	"context"
	"time"
)

// Outcome summarizes how an inbound action ended.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeError    Outcome = "error"
	OutcomeRejected Outcome = "rejected" // Blocked by the busy gate
)

// ActionEvent describes one handled inbound action.
type ActionEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	Outcome   Outcome       `json:"outcome"`
	Kind      string        `json:"kind,omitempty"` // Error kind, if any
	Duration  time.Duration `json:"duration"`
}

// GateEvent describes a write blocked because the host was busy.
type GateEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Cause     BusyCause `json:"cause"`
	Command   string    `json:"command"`
}

// SyncEvent describes a full snapshot pushed to the panel.
type SyncEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Reason     string    `json:"reason"` // Action name or "document_activated"
	Parameters int       `json:"parameters"`
	Failed     bool      `json:"failed,omitempty"`
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnAction       func(context.Context, *ActionEvent)
	OnGateRejected func(context.Context, *GateEvent)
	OnSync         func(context.Context, *SyncEvent)
}

package models

import "time"

// LoopState is the lifecycle of the trading loop. It is mutated only by the
// loop itself; everything else reads snapshots.
type LoopState string

const (
	LoopIdle    LoopState = "IDLE"
	LoopRunning LoopState = "RUNNING"
	LoopError   LoopState = "ERROR"
	LoopStopped LoopState = "STOPPED"
)

// StatusSnapshot is the read-only view exposed to presentation layers. The
// loop updates it; external layers poll it at their own cadence.
type StatusSnapshot struct {
	State       LoopState    `json:"state"`
	LastMessage string       `json:"last_message"`
	LastSignal  SignalAction `json:"last_signal,omitempty"`
	RetryCount  int          `json:"retry_count"`
	CycleCount  int64        `json:"cycle_count"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

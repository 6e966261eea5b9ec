// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// State is where a debugging session is in its step loop
type State int

const (
	Idle State = iota
	StepPending
	AwaitingStepPermission
	Running
	AwaitingContinuePermission
	Aborted
	Complete
)

var stateNames = map[State]string{
	Idle:                       "idle",
	StepPending:                "step_pending",
	AwaitingStepPermission:     "awaiting_step_permission",
	Running:                    "running",
	AwaitingContinuePermission: "awaiting_continue_permission",
	Aborted:                    "aborted",
	Complete:                   "complete",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether the session has ended
func (s State) Terminal() bool {
	return s == Aborted || s == Complete
}

// Summary counts what happened during a session
type Summary struct {
	SessionID string `json:"session_id"`
	IssueType string `json:"issue_type"`
	State     State  `json:"-"`
	Steps     int    `json:"steps"`
	Ran       int    `json:"ran"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Previewed int    `json:"previewed,omitempty"`
}

// MarshalLogObject lets the summary be logged as a single zap field
func (s Summary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("session_id", s.SessionID)
	enc.AddString("issue_type", s.IssueType)
	enc.AddString("state", s.State.String())
	enc.AddInt("steps", s.Steps)
	enc.AddInt("ran", s.Ran)
	enc.AddInt("skipped", s.Skipped)
	enc.AddInt("failed", s.Failed)
	if s.Previewed > 0 {
		enc.AddInt("previewed", s.Previewed)
	}
	return nil
}

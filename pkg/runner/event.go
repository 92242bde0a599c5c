package runner

import (
	"fmt"
	"time"

	"github.com/webresearch/research-bridge/pkg/crew"
)

// Stage names a step of a run.
type Stage string

const (
	StagePreflight     Stage = "preflight"
	StagePreflightDone Stage = "preflight_done"
	StageTaskStarted   Stage = "task_started"
	StageToolCall      Stage = "tool_call"
	StageTaskFinished  Stage = "task_finished"
	StageWriting       Stage = "writing"
	StageDone          Stage = "done"
	StageFailed        Stage = "failed"
)

// Event is a progress notification.
type Event struct {
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

func crewEvent(e crew.Event, now time.Time) Event {
	switch e.Stage {
	case crew.StageTaskStarted:
		return Event{Stage: StageTaskStarted, Message: fmt.Sprintf("%s started %s", e.Agent, e.Task), Time: now}
	case crew.StageToolCall:
		return Event{Stage: StageToolCall, Message: fmt.Sprintf("%s called %s", e.Agent, e.Detail), Time: now}
	default:
		return Event{Stage: StageTaskFinished, Message: fmt.Sprintf("%s finished %s", e.Agent, e.Task), Time: now}
	}
}

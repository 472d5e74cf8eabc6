package events

// TaskEvent reports a task lifecycle change: admission, a state transition,
// or a terminal outcome.
type TaskEvent struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`
	Step   string `json:"step,omitempty"`
	Status string `json:"status,omitempty"`
}

// OverrideEvent reports a recorded human override.
type OverrideEvent struct {
	TaskID  string `json:"task_id"`
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

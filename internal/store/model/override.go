package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// OverrideLog is a tamper-evident record of a human override decision.
// Entries are append-only and never mutated.
type OverrideLog struct {
	Event     string
	TaskID    string
	ActorID   string
	Reason    string
	Timestamp time.Time
	Signature string
}

// NewOverrideLog seals a new entry over the supplied fields.
func NewOverrideLog(taskID, actorID, reason string) OverrideLog {
	entry := OverrideLog{
		Event:     "OVERRIDE",
		TaskID:    taskID,
		ActorID:   actorID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	entry.Signature = entry.seal()
	return entry
}

// Verify recomputes the seal and reports whether the entry is intact.
func (o OverrideLog) Verify() bool {
	return o.Signature == o.seal()
}

func (o OverrideLog) seal() string {
	payload := fmt.Sprintf("%s%s%s%s", o.TaskID, o.ActorID, o.Reason, o.Timestamp.Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

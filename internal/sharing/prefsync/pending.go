package prefsync

import (
	"fmt"
	"time"

	"trustverify/pkg/platform/sentinel"
)

// WriteOp names the kind of optimistic write.
type WriteOp string

const (
	OpSave   WriteOp = "save"
	OpDelete WriteOp = "delete"
)

// WriteState is the lifecycle of an optimistic write. A write starts pending
// (applied to the cache only) and ends committed or reverted.
type WriteState string

const (
	StatePending   WriteState = "pending"
	StateCommitted WriteState = "committed"
	StateReverted  WriteState = "reverted"
)

// PendingWrite records one optimistic write. Err is set when it was reverted.
type PendingWrite struct {
	ID             string
	Op             WriteOp
	UserID         string
	RecipientEmail string
	State          WriteState
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Observer receives a copy of a write on every state change.
type Observer func(PendingWrite)

func (w *PendingWrite) transition(to WriteState, cause error, at time.Time) error {
	if w.State != StatePending {
		return fmt.Errorf("write %s: %s -> %s: %w", w.ID, w.State, to, sentinel.ErrInvalidState)
	}
	w.State = to
	w.Err = cause
	w.FinishedAt = at
	return nil
}

func (w *PendingWrite) commit(at time.Time) error {
	return w.transition(StateCommitted, nil, at)
}

func (w *PendingWrite) revert(cause error, at time.Time) error {
	return w.transition(StateReverted, cause, at)
}
